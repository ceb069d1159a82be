package tsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/ruuvitel/internal/log"
	"github.com/jackc/pgtype"
)

// rowModel is the gorm model backing every measurement table: one row
// per Point, tags/fields stored as JSONB so the same table shape serves
// every measurement name without a migration per field. pgtype.JSONB is
// the teacher's own column type for this (internal/controllers/aerisweather
// stores forecast responses the same way) — it round-trips through
// database/sql's Valuer/Scanner pair without gorm's generic serializer.
type rowModel struct {
	Time   time.Time    `gorm:"column:time"`
	Tags   pgtype.JSONB `gorm:"column:tags"`
	Fields pgtype.JSONB `gorm:"column:fields"`
}

func newJSONB(v interface{}) (pgtype.JSONB, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return pgtype.JSONB{}, fmt.Errorf("tsstore: marshaling jsonb: %w", err)
	}
	var j pgtype.JSONB
	if err := j.Set(b); err != nil {
		return pgtype.JSONB{}, fmt.Errorf("tsstore: building jsonb: %w", err)
	}
	return j, nil
}

func (rowModel) TableName() string { return "" } // overridden per-call via db.Table(...)

// WritePoints performs the synchronous write() operation: one insert per
// Point, grouped by measurement table, retried with the same
// exponential-backoff policy as Connect for transient failures. A
// permanent failure (auth, schema) returns immediately wrapping
// ErrStoreRejected without consuming the retry budget.
func (c *Client) WritePoints(ctx context.Context, points []Point) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return ErrNotConnected
	}

	byTable := make(map[string][]rowModel)
	for _, p := range points {
		if len(p.Fields) == 0 {
			continue // a point with empty fields is not emitted
		}
		tags, err := newJSONB(p.Tags)
		if err != nil {
			return err
		}
		fields, err := newJSONB(p.Fields)
		if err != nil {
			return err
		}
		byTable[p.Measurement] = append(byTable[p.Measurement], rowModel{
			Time:   p.Timestamp,
			Tags:   tags,
			Fields: fields,
		})
	}

	for table, rows := range byTable {
		if err := c.dbWriteTable(ctx, table, rows); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) dbWriteTable(ctx context.Context, table string, rows []rowModel) error {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= c.ret.attempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(float64(c.ret.delay) * math.Pow(c.ret.base, float64(attempt-1)))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return fmt.Errorf("tsstore: write to %s: %w", table, ctx.Err())
			}
		}

		err := db.WithContext(ctx).Table(table).Create(&rows).Error
		if err == nil {
			return nil
		}

		if isPermanent(err) {
			return fmt.Errorf("%w: %w", ErrStoreRejected, err)
		}
		lastErr = err
		log.Warnf("tsstore: transient write failure on %s (attempt %d/%d): %v", table, attempt+1, c.ret.attempts+1, err)
	}

	return fmt.Errorf("tsstore: write to %s exhausted retries: %w", table, lastErr)
}
