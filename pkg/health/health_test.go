package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func staticCheck(status Status) CheckFunc {
	return func(context.Context) Check {
		return Check{Status: status}
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker()

	if hc.checks == nil || hc.readyChecks == nil || hc.liveChecks == nil {
		t.Fatal("check maps not initialized")
	}
	if hc.timeout != DefaultCheckTimeout {
		t.Errorf("timeout = %v, want %v", hc.timeout, DefaultCheckTimeout)
	}
}

func TestChecksAreSeparatedByKind(t *testing.T) {
	hc := NewHealthChecker()

	var health, ready, live int
	hc.RegisterCheck("h", func(context.Context) Check { health++; return Check{Status: StatusHealthy} })
	hc.RegisterReadinessCheck("r", func(context.Context) Check { ready++; return Check{Status: StatusHealthy} })
	hc.RegisterLivenessCheck("l", func(context.Context) Check { live++; return Check{Status: StatusHealthy} })

	ctx := context.Background()
	hc.Check(ctx)
	hc.CheckReadiness(ctx)
	hc.CheckLiveness(ctx)

	if health != 1 || ready != 1 || live != 1 {
		t.Errorf("calls health=%d ready=%d live=%d, want 1 each", health, ready, live)
	}
}

func TestCheckStatusAggregation(t *testing.T) {
	tests := []struct {
		name           string
		checkStatuses  []Status
		expectedStatus Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []Status{StatusHealthy, StatusUnhealthy}, StatusUnhealthy},
		{"degraded and unhealthy", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, status := range tt.checkStatuses {
				hc.RegisterCheck(string(rune('a'+i)), staticCheck(status))
			}

			resp := hc.Check(context.Background())
			if resp.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, resp.Status)
			}
		})
	}
}

func TestCheckFillsNameAndTiming(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("slow", func(context.Context) Check {
		time.Sleep(10 * time.Millisecond)
		return Check{Status: StatusHealthy}
	})

	before := time.Now()
	resp := hc.Check(context.Background())
	check := resp.Checks["slow"]

	if check.Name != "slow" {
		t.Errorf("name = %q, want slow", check.Name)
	}
	if check.Duration < 10*time.Millisecond {
		t.Errorf("duration %v shorter than the check", check.Duration)
	}
	if check.LastChecked.Before(before) {
		t.Errorf("last checked %v before the call", check.LastChecked)
	}
	if resp.Uptime <= 0 {
		t.Errorf("uptime = %v", resp.Uptime)
	}
}

func TestCheckTimeout(t *testing.T) {
	hc := NewHealthChecker()
	hc.SetCheckTimeout(20 * time.Millisecond)
	hc.RegisterCheck("hung", StoreCheck("hung", pingerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), true))

	start := time.Now()
	resp := hc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("check was not bounded by the timeout")
	}
	if resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", resp.Status)
	}
}

func TestSimpleCheck(t *testing.T) {
	check := SimpleCheck("process")(context.Background())
	if check.Name != "process" || check.Status != StatusHealthy {
		t.Errorf("check = %+v", check)
	}
}

func TestStoreCheck(t *testing.T) {
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	up := pingerFunc(func(context.Context) error { return nil })

	tests := []struct {
		name     string
		pinger   Pinger
		critical bool
		want     Status
	}{
		{"primary up", up, true, StatusHealthy},
		{"primary down", down, true, StatusUnhealthy},
		{"secondary down", down, false, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := StoreCheck("store", tt.pinger, tt.critical)(context.Background())
			if check.Status != tt.want {
				t.Errorf("status = %s, want %s", check.Status, tt.want)
			}
			if tt.want != StatusHealthy && check.Message != "connection refused" {
				t.Errorf("message = %q", check.Message)
			}
		})
	}
}

func TestReplicationCheck(t *testing.T) {
	thresholds := ReplicationThresholds{MaxPending: 10, MaxAge: time.Minute}

	tests := []struct {
		name  string
		state ReplicationState
		want  Status
	}{
		{"empty queue", ReplicationState{}, StatusHealthy},
		{"small backlog", ReplicationState{Pending: 3, OldestEnqueued: time.Now()}, StatusHealthy},
		{"large backlog", ReplicationState{Pending: 11, OldestEnqueued: time.Now()}, StatusDegraded},
		{"stale backlog", ReplicationState{Pending: 1, OldestEnqueued: time.Now().Add(-2 * time.Minute)}, StatusDegraded},
		{"failing flush", ReplicationState{Pending: 1, OldestEnqueued: time.Now(), LastFlushError: "secondary down"}, StatusDegraded},
		{"old error, queue drained", ReplicationState{LastFlushError: "secondary down"}, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.state
			check := ReplicationCheck(func() ReplicationState { return state }, thresholds)(context.Background())
			if check.Status != tt.want {
				t.Errorf("status = %s (%s), want %s", check.Status, check.Message, tt.want)
			}
			if check.Details["pending_changes"] != state.Pending {
				t.Errorf("details = %v", check.Details)
			}
		})
	}
}

func TestMirrorCheckReportsOnlyNewFailures(t *testing.T) {
	var failures uint64
	check := MirrorCheck(func() uint64 { return failures })
	ctx := context.Background()

	if got := check(ctx).Status; got != StatusHealthy {
		t.Errorf("no failures: %s", got)
	}

	failures = 2
	if got := check(ctx); got.Status != StatusDegraded || got.Details["mirror_failures_recent"] != uint64(2) {
		t.Errorf("new failures: %+v", got)
	}

	if got := check(ctx).Status; got != StatusHealthy {
		t.Errorf("no new failures since last check: %s", got)
	}
}

func TestBackendsCheck(t *testing.T) {
	tests := []struct {
		alive, total int
		want         Status
	}{
		{2, 2, StatusHealthy},
		{1, 2, StatusDegraded},
		{0, 2, StatusUnhealthy},
	}
	for _, tt := range tests {
		check := BackendsCheck(func() (int, int) { return tt.alive, tt.total })(context.Background())
		if check.Status != tt.want {
			t.Errorf("%d/%d alive: status %s, want %s", tt.alive, tt.total, check.Status, tt.want)
		}
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		status     Status
		healthCode int
		binaryCode int
	}{
		{StatusHealthy, http.StatusOK, http.StatusOK},
		{StatusDegraded, http.StatusOK, http.StatusServiceUnavailable},
		{StatusUnhealthy, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			hc := NewHealthChecker()
			hc.RegisterCheck("c", staticCheck(tt.status))
			hc.RegisterReadinessCheck("c", staticCheck(tt.status))
			hc.RegisterLivenessCheck("c", staticCheck(tt.status))

			rec := httptest.NewRecorder()
			hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.healthCode {
				t.Errorf("/health code = %d, want %d", rec.Code, tt.healthCode)
			}
			if rec.Header().Get("Content-Type") != "application/json" {
				t.Error("expected Content-Type application/json")
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("response status = %s, want %s", resp.Status, tt.status)
			}

			for path, h := range map[string]http.HandlerFunc{
				"/ready": hc.ReadinessHandler(),
				"/live":  hc.LivenessHandler(),
			} {
				rec := httptest.NewRecorder()
				h(rec, httptest.NewRequest(http.MethodGet, path, nil))
				if rec.Code != tt.binaryCode {
					t.Errorf("%s code = %d, want %d", path, rec.Code, tt.binaryCode)
				}
			}
		})
	}
}

func TestConcurrentCheckRegistration(t *testing.T) {
	hc := NewHealthChecker()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			hc.RegisterCheck(string(rune('a'+id)), staticCheck(StatusHealthy))
		}(i)
		go func() {
			defer wg.Done()
			hc.Check(context.Background())
		}()
	}
	wg.Wait()

	if resp := hc.Check(context.Background()); len(resp.Checks) != 10 {
		t.Errorf("expected 10 checks, got %d", len(resp.Checks))
	}
}
