package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "xreflint", " ")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(DefectsTotal.WithLabelValues("error"))
	DefectsTotal.WithLabelValues("error").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(DefectsTotal.WithLabelValues("error")))
}

func TestServerEndpoints(t *testing.T) {
	var state atomic.Value
	state.Store("ok")
	s := NewServer("127.0.0.1:0", func() map[string]string {
		return map[string]string{"parser": state.Load().(string)}
	})
	require.NoError(t, s.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}()

	RunsTotal.Inc()
	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "xreflint_runs_total")

	resp, err = http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	var status healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", status.Status)

	state.Store("missing")
	resp, err = http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
