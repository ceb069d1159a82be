package tsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"gorm.io/gorm"
)

// rawRow is what a plain (non-grouped) query scans into before the JSONB
// columns are unmarshaled into Go maps.
type rawRow struct {
	Time   time.Time
	Tags   pgtype.JSONB
	Fields pgtype.JSONB
}

// Query runs a structured query against one measurement's table. Callers
// must tolerate an empty, non-nil result slice — there is no distinction
// between "no data" and "no matching rows" at this layer.
func (c *Client) Query(ctx context.Context, q Query) ([]Record, error) {
	c.mu.Lock()
	db, connected := c.db, c.connected
	c.mu.Unlock()

	if !connected || db == nil {
		return nil, ErrNotConnected
	}

	rows, err := c.queryRaw(ctx, db, q)
	if err != nil {
		return nil, err
	}
	if q.GroupByHour {
		return bucketHourly(rows), nil
	}
	return rows, nil
}

func (c *Client) queryRaw(ctx context.Context, db *gorm.DB, q Query) ([]Record, error) {
	tx := db.WithContext(ctx).Table(q.Measurement).
		Where("time >= ? AND time <= ?", q.Start, q.End).
		Order("time ASC")
	for k, v := range q.Tags {
		tx = tx.Where("tags ->> ? = ?", k, v)
	}

	var raw []rawRow
	if err := tx.Select("time, tags, fields").Find(&raw).Error; err != nil {
		return nil, fmt.Errorf("tsstore: query %s: %w", q.Measurement, err)
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		rec, err := r.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r rawRow) toRecord() (Record, error) {
	var tags map[string]string
	var fields map[string]interface{}
	if len(r.Tags.Bytes) > 0 {
		if err := json.Unmarshal(r.Tags.Bytes, &tags); err != nil {
			return Record{}, fmt.Errorf("tsstore: decoding tags: %w", err)
		}
	}
	if len(r.Fields.Bytes) > 0 {
		if err := json.Unmarshal(r.Fields.Bytes, &fields); err != nil {
			return Record{}, fmt.Errorf("tsstore: decoding fields: %w", err)
		}
	}
	return Record{Time: r.Time, Tags: tags, Fields: fields}, nil
}
