package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type statusBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func get(t *testing.T, endpoint http.HandlerFunc) (int, statusBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body statusBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func TestLiveEndpoint_HealthyUntilProvenOtherwise(t *testing.T) {
	h := New()
	h.AddLivenessCheck("a", passing, CheckOptions{})
	h.AddLivenessCheck("b", failing("never run"), CheckOptions{})

	code, body := get(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Empty(t, body.Checks)
}

func TestCheck_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("catalog", failing("connection refused"), CheckOptions{FailureThreshold: 3})
	c := h.liveness[0]
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	code, _ := get(t, h.LiveEndpoint)
	require.Equal(t, http.StatusOK, code)

	c.run(ctx)
	code, body := get(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"catalog": "connection refused"}, body.Checks)
}

func TestCheck_Recovers(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	fn := func(context.Context) error {
		if broken.Load() {
			return errors.New("down")
		}
		return nil
	}

	h := New()
	h.AddReadinessCheck("catalog", fn, CheckOptions{FailureThreshold: 1, SuccessThreshold: 2})
	h.SetReady(true)
	c := h.readiness[0]
	ctx := context.Background()

	c.run(ctx)
	assert.False(t, h.IsReady())

	broken.Store(false)
	c.run(ctx)
	assert.False(t, h.IsReady(), "one success is below the threshold")
	c.run(ctx)
	assert.True(t, h.IsReady())
}

func TestCheck_Timeout(t *testing.T) {
	h := New()
	h.AddLivenessCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, CheckOptions{Timeout: time.Millisecond, FailureThreshold: 1})

	h.liveness[0].run(context.Background())
	_, body := get(t, h.LiveEndpoint)
	assert.Equal(t, context.DeadlineExceeded.Error(), body.Checks["slow"])
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("catalog", passing, CheckOptions{})

	code, body := get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"_readiness": "service is not ready"}, body.Checks)

	h.SetReady(true)
	code, body = get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	var runs atomic.Int32
	h := New()
	h.AddLivenessCheck("count", func(context.Context) error {
		runs.Add(1)
		return nil
	}, CheckOptions{})
	h.AddReadinessCheck("other", passing, CheckOptions{})

	h.Start(context.Background(), time.Millisecond)
	h.Start(context.Background(), time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()
	// goleak in TestMain verifies the check goroutines have exited.
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestGCMaxPauseCheck(t *testing.T) {
	require.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
