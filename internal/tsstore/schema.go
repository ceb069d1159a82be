package tsstore

import (
	"context"
	"fmt"

	"github.com/chrissnell/ruuvitel/internal/log"
	"gorm.io/gorm"
)

// measurementTables lists every measurement name this client ever writes
// to, so Connect can provision a hypertable for each one up front rather
// than discovering tables lazily on first write.
var measurementTables = []string{
	MeasurementEnvironmental,
	MeasurementMotion,
	MeasurementPower,
	MeasurementSignal,
	MeasurementForecast,
	MeasurementForecastError,
}

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	time        TIMESTAMPTZ       NOT NULL,
	tags        JSONB             NOT NULL DEFAULT '{}',
	fields      JSONB             NOT NULL DEFAULT '{}'
);`, table)
}

func createHypertableSQL(table string) string {
	return fmt.Sprintf(`SELECT create_hypertable('%s', 'time', if_not_exists => TRUE);`, table)
}

func createTagIndexSQL(table string) string {
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_tags ON %s USING GIN (tags);`, table, table)
}

// provisionSchema creates the TimescaleDB extension and one hypertable
// per measurement name. Failures to create the extension, a hypertable or
// a tag index are logged and skipped, in the same spirit as the teacher's
// New(): a table that already exists is not a reason to refuse to start.
// A failure to create a table is returned, which fails that connect
// attempt.
func provisionSchema(ctx context.Context, db *gorm.DB) error {
	log.Info("tsstore: creating TimescaleDB extension...")
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		log.Warnf("tsstore: could not create TimescaleDB extension (continuing): %v", err)
	}

	for _, table := range measurementTables {
		log.Infof("tsstore: provisioning hypertable %s...", table)
		if err := db.WithContext(ctx).Exec(createTableSQL(table)).Error; err != nil {
			return fmt.Errorf("creating table %s: %w", table, err)
		}
		if err := db.WithContext(ctx).Exec(createHypertableSQL(table)).Error; err != nil {
			log.Warnf("tsstore: could not hypertable-ize %s (continuing, may already be one): %v", table, err)
		}
		if err := db.WithContext(ctx).Exec(createTagIndexSQL(table)).Error; err != nil {
			log.Warnf("tsstore: could not create tag index on %s (continuing): %v", table, err)
		}
	}

	return nil
}
