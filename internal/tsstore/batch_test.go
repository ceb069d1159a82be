package tsstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/ruuvitel/internal/config"
)

func newTestClient(batchSize, maxBufferSize int, flushInterval time.Duration) *Client {
	c := New(config.StoreConfig{
		BatchSize:     batchSize,
		MaxBufferSize: maxBufferSize,
		FlushInterval: flushInterval,
	}, config.ScanConfig{RetryAttempts: 2, RetryDelay: time.Millisecond, RetryBase: 2})
	return c
}

func testPoint(temp float64) Point {
	return Point{
		Measurement: MeasurementEnvironmental,
		Tags:        map[string]string{"sensor_mac": "AA:BB:CC:DD:EE:01"},
		Fields:      map[string]interface{}{"temperature_c": temp},
		Timestamp:   time.Now(),
	}
}

func TestClient_FlushWritesAndEmptiesBuffer(t *testing.T) {
	c := newTestClient(100, 1000, time.Hour)

	var mu sync.Mutex
	var written []Point
	c.writeFn = func(ctx context.Context, points []Point) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, points...)
		return nil
	}

	c.Buffer(testPoint(1))
	c.Buffer(testPoint(2))

	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(written) != 2 {
		t.Fatalf("written = %d points, want 2", len(written))
	}

	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	if len(c.buf) != 0 {
		t.Errorf("buffer not empty after successful flush: len=%d", len(c.buf))
	}
}

func TestClient_BufferTriggersFlushAtBatchSize(t *testing.T) {
	c := newTestClient(2, 1000, time.Hour)

	flushed := make(chan int, 10)
	c.writeFn = func(ctx context.Context, points []Point) error {
		flushed <- len(points)
		return nil
	}

	c.Buffer(testPoint(1))
	c.Buffer(testPoint(2)) // reaches batch_size, triggers async flush

	select {
	case n := <-flushed:
		if n != 2 {
			t.Errorf("flushed batch size = %d, want 2", n)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Buffer to trigger a flush at batch_size, none observed")
	}
}

func TestClient_FailedFlushReenqueuesPoints(t *testing.T) {
	c := newTestClient(100, 1000, time.Hour)
	c.writeFn = func(ctx context.Context, points []Point) error {
		return errors.New("simulated transient failure")
	}

	c.Buffer(testPoint(1))
	err := c.Flush(context.Background())
	if err == nil {
		t.Fatal("Flush() expected to return the simulated error")
	}

	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	if len(c.buf) != 1 {
		t.Fatalf("after failed flush, buffer len = %d, want 1 (re-enqueued)", len(c.buf))
	}
}

func TestClient_BufferOverflowDropsOldest(t *testing.T) {
	c := newTestClient(1000, 3, time.Hour)
	c.writeFn = func(ctx context.Context, points []Point) error { return nil }

	for i := 0; i < 5; i++ {
		c.Buffer(testPoint(float64(i)))
	}

	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	if len(c.buf) != 3 {
		t.Fatalf("buffer len = %d, want 3 (max_buffer_size)", len(c.buf))
	}
	firstTemp := c.buf[0].Fields["temperature_c"].(float64)
	if firstTemp != 2 {
		t.Errorf("oldest retained point has temperature_c=%v, want 2 (0 and 1 should have been dropped)", firstTemp)
	}
}

func TestClient_RunFinalDrainOnShutdown(t *testing.T) {
	c := newTestClient(100, 1000, time.Hour)

	var mu sync.Mutex
	var flushCount int
	c.writeFn = func(ctx context.Context, points []Point) error {
		mu.Lock()
		flushCount++
		mu.Unlock()
		return nil
	}

	c.Buffer(testPoint(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if flushCount != 1 {
		t.Errorf("flush count after shutdown = %d, want 1", flushCount)
	}
}
