package replication

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
	"github.com/dd0wney/cluso-failover/pkg/store"
	"github.com/dd0wney/cluso-failover/pkg/store/storetest"
)

func newTestCoordinator(t *testing.T, config Config) (*Coordinator, *storetest.Fake, *storetest.Fake) {
	t.Helper()
	primary := storetest.New(store.PrimaryName)
	secondary := storetest.New(store.SecondaryName)
	c := NewCoordinator(primary, secondary, config,
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics.NewRegistry()),
	)
	return c, primary, secondary
}

func mustWrite(t *testing.T, c *Coordinator, sql string, args ...any) {
	t.Helper()
	if _, err := c.Write(context.Background(), sql, args...); err != nil {
		t.Fatalf("Write(%q): %v", sql, err)
	}
}

func TestWriteQueuesAfterPrimarySuccess(t *testing.T) {
	c, primary, secondary := newTestCoordinator(t, DefaultConfig())

	res, err := c.Write(context.Background(), "UPDATE price", 5)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if res.Source != store.PrimaryName {
		t.Errorf("result source = %q, want primary", res.Source)
	}
	if got := primary.AppliedSQL(); len(got) != 1 {
		t.Errorf("primary applied = %v", got)
	}
	if len(secondary.Applied()) != 0 {
		t.Error("secondary must not see the write before a flush")
	}

	pending := c.Pending()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].SQL != "UPDATE price" || !reflect.DeepEqual(pending[0].Args, []any{5}) {
		t.Errorf("pending[0] = %+v", pending[0])
	}
	if pending[0].ID == "" || pending[0].EnqueuedAt.IsZero() {
		t.Errorf("pending[0] missing id or timestamp: %+v", pending[0])
	}
}

func TestWriteFailureLeavesQueueUntouched(t *testing.T) {
	c, primary, _ := newTestCoordinator(t, DefaultConfig())
	mustWrite(t, c, "UPDATE price", 5)

	primary.FailOn("INSERT", errors.New("duplicate key"))
	_, err := c.Write(context.Background(), "INSERT INTO products", "x")
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("queue length = %d, want 1", c.Len())
	}

	primary.SetDown(true)
	if _, err := c.Write(context.Background(), "UPDATE stock", 10); !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite with primary down, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("queue length = %d, want 1", c.Len())
	}
}

func TestWriteCopiesArgs(t *testing.T) {
	c, _, _ := newTestCoordinator(t, DefaultConfig())

	args := []any{5}
	mustWrite(t, c, "UPDATE price", args...)
	args[0] = 99

	if got := c.Pending()[0].Args[0]; got != 5 {
		t.Errorf("queued arg changed to %v after caller mutated its slice", got)
	}
}

func TestFlushReplaysInSubmissionOrder(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, DefaultConfig())

	mustWrite(t, c, "UPDATE price", 5)
	mustWrite(t, c, "UPDATE stock", 10)

	n, err := c.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if n != 2 {
		t.Errorf("flushed = %d, want 2", n)
	}

	applied := secondary.Applied()
	want := []storetest.Statement{
		{SQL: "UPDATE price", Args: []any{5}},
		{SQL: "UPDATE stock", Args: []any{10}},
	}
	if !reflect.DeepEqual(applied, want) {
		t.Errorf("secondary applied = %+v, want %+v", applied, want)
	}
	if c.Len() != 0 {
		t.Errorf("queue length after commit = %d, want 0", c.Len())
	}
	if secondary.Begins() != 1 {
		t.Errorf("transactions opened = %d, want 1", secondary.Begins())
	}
}

func TestFlushEmptyQueueIsNoop(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, DefaultConfig())

	n, err := c.Flush(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("Flush() = %d, %v; want 0, nil", n, err)
	}
	if secondary.Begins() != 0 {
		t.Error("empty flush must not open a transaction")
	}
}

func TestFlushFailurePreservesQueue(t *testing.T) {
	tests := []struct {
		name  string
		breakStore func(f *storetest.Fake)
	}{
		{
			name:   "replay error mid-batch",
			breakStore: func(f *storetest.Fake) { f.FailOn("UPDATE stock", errors.New("relation does not exist")) },
		},
		{
			name:   "commit error",
			breakStore: func(f *storetest.Fake) { f.FailCommit(errors.New("serialization failure")) },
		},
		{
			name:   "secondary unreachable",
			breakStore: func(f *storetest.Fake) { f.SetDown(true) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, secondary := newTestCoordinator(t, DefaultConfig())
			mustWrite(t, c, "UPDATE price", 5)
			mustWrite(t, c, "UPDATE stock", 10)
			mustWrite(t, c, "UPDATE name", "lamp")

			before := c.Pending()
			tt.breakStore(secondary)

			if _, err := c.Flush(context.Background()); !errors.Is(err, ErrFlush) {
				t.Fatalf("expected ErrFlush, got %v", err)
			}

			if after := c.Pending(); !reflect.DeepEqual(before, after) {
				t.Errorf("queue changed by failed flush:\nbefore %+v\nafter  %+v", before, after)
			}
			if len(secondary.Applied()) != 0 {
				t.Errorf("secondary applied %v after a failed flush", secondary.AppliedSQL())
			}

			secondary.SetDown(false)
			secondary.ClearFailures()

			if _, err := c.Flush(context.Background()); err != nil {
				t.Fatalf("retry flush failed: %v", err)
			}
			want := []string{"UPDATE price", "UPDATE stock", "UPDATE name"}
			if got := secondary.AppliedSQL(); !reflect.DeepEqual(got, want) {
				t.Errorf("after retry secondary applied %v, want %v", got, want)
			}
		})
	}
}

func TestFlushRollsBackOnReplayError(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, DefaultConfig())
	mustWrite(t, c, "UPDATE price", 5)
	secondary.FailOn("price", errors.New("boom"))

	c.Flush(context.Background())

	if secondary.Rollbacks() != 1 {
		t.Errorf("rollbacks = %d, want 1", secondary.Rollbacks())
	}
}

func TestFlushHeadOfLineBlocking(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, DefaultConfig())
	secondary.FailOn("poison", errors.New("permanent failure"))

	mustWrite(t, c, "UPDATE poison", 1)
	mustWrite(t, c, "UPDATE price", 5)

	for i := 0; i < 3; i++ {
		if _, err := c.Flush(context.Background()); err == nil {
			t.Fatalf("flush %d unexpectedly succeeded", i)
		}
	}

	if len(secondary.Applied()) != 0 {
		t.Errorf("entries behind a failing change were applied: %v", secondary.AppliedSQL())
	}
	if c.Len() != 2 {
		t.Errorf("queue length = %d, want 2", c.Len())
	}
	if st := c.Status(); st.FailedFlushes != 3 || st.LastFlushError == "" {
		t.Errorf("status = %+v", st)
	}
}

func TestReadFallsBackToSecondary(t *testing.T) {
	c, primary, _ := newTestCoordinator(t, DefaultConfig())

	res, err := c.Read(context.Background(), "SELECT * FROM products")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if res.Source != store.PrimaryName {
		t.Errorf("source = %q, want primary", res.Source)
	}

	primary.SetDown(true)
	res, err = c.Read(context.Background(), "SELECT * FROM products")
	if err != nil {
		t.Fatalf("Read with primary down failed: %v", err)
	}
	if res.Source != store.SecondaryName {
		t.Errorf("source = %q, want secondary", res.Source)
	}
}

func TestReadFailsWhenBothStoresFail(t *testing.T) {
	c, primary, secondary := newTestCoordinator(t, DefaultConfig())
	primary.SetDown(true)
	secondary.SetDown(true)

	_, err := c.Read(context.Background(), "SELECT 1")
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
	if !errors.Is(err, storetest.ErrUnavailable) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}
}

func TestReadDoesNotQueue(t *testing.T) {
	c, _, _ := newTestCoordinator(t, DefaultConfig())
	c.Read(context.Background(), "SELECT 1")
	if c.Len() != 0 {
		t.Errorf("read was queued")
	}
}

func TestFlushLoopReplicates(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, Config{FlushInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Stop()

	mustWrite(t, c, "UPDATE price", 5)

	deadline := time.Now().Add(2 * time.Second)
	for len(secondary.Applied()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("flush loop never replicated the write")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Errorf("queue length = %d after loop flush", c.Len())
	}
}

func TestStartTwice(t *testing.T) {
	c, _, _ := newTestCoordinator(t, DefaultConfig())
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer c.Stop()
	if err := c.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestStopFlushesOnShutdown(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, Config{FlushInterval: time.Hour, FlushOnShutdown: true})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mustWrite(t, c, "UPDATE price", 5)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := secondary.AppliedSQL(); len(got) != 1 {
		t.Errorf("final flush applied %v", got)
	}
	// second Stop is a no-op
	if err := c.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestStopWithoutFinalFlush(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, Config{FlushInterval: time.Hour})
	mustWrite(t, c, "UPDATE price", 5)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(secondary.Applied()) != 0 {
		t.Error("Stop flushed although FlushOnShutdown is off")
	}
}

func TestStopReportsFailedFinalFlush(t *testing.T) {
	c, _, secondary := newTestCoordinator(t, Config{FlushInterval: time.Hour, FlushOnShutdown: true})
	mustWrite(t, c, "UPDATE price", 5)
	secondary.SetDown(true)

	if err := c.Stop(); !errors.Is(err, ErrFlush) {
		t.Errorf("Stop = %v, want ErrFlush", err)
	}
}

func TestConcurrentWritesAndFlushesKeepPrimaryOrder(t *testing.T) {
	c, primary, secondary := newTestCoordinator(t, DefaultConfig())
	ctx := context.Background()

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := c.Write(ctx, fmt.Sprintf("UPDATE w%d SET n = %d", w, i)); err != nil {
					t.Errorf("write: %v", err)
				}
			}
		}(w)
	}

	stop := make(chan struct{})
	flushDone := make(chan struct{})
	go func() {
		defer close(flushDone)
		for {
			select {
			case <-stop:
				return
			default:
				c.Flush(ctx)
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-flushDone

	if _, err := c.Flush(ctx); err != nil {
		t.Fatalf("final flush: %v", err)
	}

	if !reflect.DeepEqual(primary.AppliedSQL(), secondary.AppliedSQL()) {
		t.Error("secondary replay order differs from primary apply order")
	}
	if got := len(secondary.Applied()); got != writers*perWriter {
		t.Errorf("secondary applied %d, want %d", got, writers*perWriter)
	}
	if c.Len() != 0 {
		t.Errorf("queue length = %d, want 0", c.Len())
	}
}

func TestStatus(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	primary := storetest.New(store.PrimaryName)
	secondary := storetest.New(store.SecondaryName)
	c := NewCoordinator(primary, secondary, DefaultConfig(),
		WithLogger(logging.NewNopLogger()),
		WithMetrics(metrics.NewRegistry()),
		WithClock(func() time.Time { return fixed }),
	)

	mustWrite(t, c, "UPDATE price", 5)
	st := c.Status()
	if st.Mode != "async" || st.PendingChanges != 1 {
		t.Errorf("status = %+v", st)
	}
	if st.OldestEnqueuedAt == nil || !st.OldestEnqueuedAt.Equal(fixed) {
		t.Errorf("oldest = %v, want %v", st.OldestEnqueuedAt, fixed)
	}

	c.Flush(context.Background())
	st = c.Status()
	if st.PendingChanges != 0 || st.FlushedChanges != 1 || st.LastFlushAt == nil {
		t.Errorf("status after flush = %+v", st)
	}
}
