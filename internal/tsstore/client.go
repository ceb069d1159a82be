package tsstore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/chrissnell/ruuvitel/internal/config"
	"github.com/chrissnell/ruuvitel/internal/log"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client is the time-series store client described in §4.4: connect,
// batched write, query, health. One Client is shared by the sensor
// pipeline, the forecast writer, and the error-join engine — its
// connection and buffer state are mutex-guarded and the gorm pool is
// safe for concurrent use, so none of its owners need their own locking
// around it. Concurrent WritePoints calls are not serialized against
// each other.
type Client struct {
	cfg config.StoreConfig
	ret retryConfig

	mu        sync.Mutex
	db        *gorm.DB
	connected bool

	bufMu sync.Mutex
	buf   []Point // front of buf is oldest; re-enqueued retries go at index 0

	// writeFn defaults to c.WritePoints; tests override it to exercise
	// Buffer/Flush's enqueue and overflow policy without a real database.
	writeFn func(ctx context.Context, points []Point) error
}

type retryConfig struct {
	attempts int
	delay    time.Duration
	base     float64
}

// New constructs a Client. It does not connect; call Connect explicitly
// so callers control when the retry/backoff sequence runs.
func New(storeCfg config.StoreConfig, scanCfg config.ScanConfig) *Client {
	c := &Client{
		cfg: storeCfg,
		ret: retryConfig{
			attempts: scanCfg.RetryAttempts,
			delay:    scanCfg.RetryDelay,
			base:     scanCfg.RetryBase,
		},
	}
	c.writeFn = c.WritePoints
	return c
}

// Connect establishes the database session and provisions schema,
// retrying with exponential backoff (delay * base^attempt) up to
// ret.attempts times. On exhaustion it returns an error wrapping
// ErrConnection.
func (c *Client) Connect(ctx context.Context) error {
	dsn := c.dsn()

	var lastErr error
	for attempt := 0; attempt <= c.ret.attempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(float64(c.ret.delay) * math.Pow(c.ret.base, float64(attempt-1)))
			log.Warnf("tsstore: connect attempt %d failed, retrying in %s: %v", attempt, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrConnection, ctx.Err())
			}
		}

		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.New(
				zap.NewStdLog(log.GetZapLogger()),
				gormlogger.Config{
					SlowThreshold: 200 * time.Millisecond,
					LogLevel:      gormlogger.Warn,
				},
			),
		})
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB, err := db.DB()
		if err != nil {
			lastErr = err
			continue
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)

		if err := sqlDB.PingContext(ctx); err != nil {
			lastErr = err
			continue
		}

		if err := provisionSchema(ctx, db); err != nil {
			lastErr = err
			continue
		}

		c.mu.Lock()
		c.db = db
		c.connected = true
		c.mu.Unlock()

		log.Info("tsstore: connected")
		return nil
	}

	return fmt.Errorf("%w: %w", ErrConnection, lastErr)
}

// Disconnect tears down the underlying connection pool. Subsequent
// operations return ErrNotConnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.connected = false
	return sqlDB.Close()
}

// Health is a cheap liveness probe: ping plus a trivial query, mirroring
// the teacher's CheckHealth pattern.
func (c *Client) Health(ctx context.Context) error {
	c.mu.Lock()
	db, connected := c.db, c.connected
	c.mu.Unlock()

	if !connected || db == nil {
		return ErrNotConnected
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("tsstore: health check: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("tsstore: health check ping failed: %w", err)
	}

	var result int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("tsstore: health check query failed: %w", err)
	}
	return nil
}

func (c *Client) dsn() string {
	return fmt.Sprintf(
		"host=%s password=%s dbname=%s sslmode=disable",
		c.cfg.Endpoint, c.cfg.Token, c.cfg.Bucket,
	)
}

// isPermanent classifies a write error as permanent (auth, schema —
// retrying will not help) versus transient (network, 5xx-equivalent).
// Postgres reports auth failures and undefined-relation/column errors
// with recognizable substrings; anything else is assumed transient,
// matching the fail-open posture the spec calls for ("transient errors
// retried, permanent errors fail fast").
func isPermanent(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password authentication failed"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "column") && strings.Contains(msg, "undefined"):
		return true
	default:
		return false
	}
}
