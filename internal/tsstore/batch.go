package tsstore

import (
	"context"
	"time"

	"github.com/chrissnell/ruuvitel/internal/log"
)

// Buffer enqueues a point for the next flush. It never blocks on the
// store; accumulation and the actual write are decoupled so producers
// (the sensor pipeline, forecast writer, error engine) never wait on
// the database.
func (c *Client) Buffer(p Point) {
	c.bufMu.Lock()
	c.buf = append(c.buf, p)
	overflow := len(c.buf) - c.cfg.MaxBufferSize
	if overflow > 0 {
		c.buf = c.buf[overflow:] // drop oldest
		log.Warnf("tsstore: internal buffer overflow, dropped %d oldest points", overflow)
	}
	shouldFlush := len(c.buf) >= c.cfg.BatchSize
	c.bufMu.Unlock()

	if shouldFlush {
		go c.Flush(context.Background())
	}
}

// Flush drains the internal buffer and writes it in one WritePoints
// call. On retryable failure the points are re-enqueued at the front of
// the buffer (subject to the same overflow policy) rather than dropped;
// a permanent failure (ErrStoreRejected) also re-enqueues, since the
// spec reserves silent drop for explicit buffer overflow only.
func (c *Client) Flush(ctx context.Context) error {
	c.bufMu.Lock()
	if len(c.buf) == 0 {
		c.bufMu.Unlock()
		return nil
	}
	batch := c.buf
	c.buf = nil
	c.bufMu.Unlock()

	if err := c.writeFn(ctx, batch); err != nil {
		log.Warnf("tsstore: flush failed, re-enqueuing %d points: %v", len(batch), err)
		c.bufMu.Lock()
		c.buf = append(batch, c.buf...)
		overflow := len(c.buf) - c.cfg.MaxBufferSize
		if overflow > 0 {
			c.buf = c.buf[overflow:]
			log.Warnf("tsstore: buffer overflow after re-enqueue, dropped %d oldest points", overflow)
		}
		c.bufMu.Unlock()
		return err
	}
	return nil
}

// Run drives the time-triggered half of the batching policy: flush every
// flush_interval until ctx is cancelled, then one final best-effort
// drain (failed points are discarded — they were best-effort samples).
func (c *Client) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				log.Warnf("tsstore: periodic flush failed: %v", err)
			}
		case <-ctx.Done():
			c.bufMu.Lock()
			final := c.buf
			c.buf = nil
			c.bufMu.Unlock()
			if len(final) > 0 {
				if err := c.writeFn(context.Background(), final); err != nil {
					log.Warnf("tsstore: final shutdown drain discarded %d points: %v", len(final), err)
				}
			}
			return
		}
	}
}
