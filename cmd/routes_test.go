package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/dvr/internal/api"
	"grimm.is/dvr/internal/client"
	"grimm.is/dvr/internal/ctlplane"
	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/routing"
)

func newControlServer(t *testing.T) (*ctlplane.ControlPlane, string) {
	t.Helper()
	cp := ctlplane.New(ctlplane.Options{Logger: logging.Discard(), Hub: events.NewHub()})
	s, err := api.NewServer(api.ServerOptions{ControlPlane: cp, Logger: logging.Discard()})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return cp, ts.URL
}

func TestRunRoutes_AddListDelete(t *testing.T) {
	cp, url := newControlServer(t)
	ctx := context.Background()
	var buf bytes.Buffer

	require.NoError(t, runRoutes(ctx, &buf, []string{"add", "--server", url, "--metric", "50", "10.1.0.0/24", "192.168.1.9"}))
	assert.Equal(t, "Route added: 10.1.0.0/24 -> 192.168.1.9 (metric: 50)\n", buf.String())

	buf.Reset()
	require.NoError(t, runRoutes(ctx, &buf, []string{"add", "-s", url, "10.2.0.0/24", "192.168.1.10"}))
	assert.Contains(t, buf.String(), "(metric: default)")

	buf.Reset()
	require.NoError(t, runRoutes(ctx, &buf, []string{"list", "--server", url, "-o", "json"}))
	var routes []routing.Route
	require.NoError(t, json.Unmarshal(buf.Bytes(), &routes))
	require.Len(t, routes, 4)
	assert.Equal(t, []routing.Route{
		{Destination: "10.0.0.0/24", NextHop: "192.168.1.1", Metric: 100},
		{Destination: "10.1.0.0/24", NextHop: "192.168.1.9", Metric: 50},
		{Destination: "10.2.0.0/24", NextHop: "192.168.1.10", Metric: 100},
		{Destination: "172.16.0.0/16", NextHop: "192.168.1.2", Metric: 200},
	}, routes)

	buf.Reset()
	require.NoError(t, runRoutes(ctx, &buf, []string{"delete", "--server", url, "10.1.0.0/24"}))
	assert.Equal(t, "Route deleted: 10.1.0.0/24\n", buf.String())

	err := runRoutes(ctx, &buf, []string{"delete", "--server", url, "10.1.0.0/24"})
	assert.ErrorIs(t, err, client.ErrRouteNotFound)

	assert.Equal(t, uint64(1), cp.GetStats().RoutesDeleted)
}

func TestRunRoutes_Usage(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	assert.Error(t, runRoutes(ctx, &buf, nil))
	assert.Contains(t, buf.String(), "Usage:")

	assert.Error(t, runRoutes(ctx, &buf, []string{"frobnicate"}))
	assert.NoError(t, runRoutes(ctx, &buf, []string{"help"}))

	assert.Error(t, runRoutes(ctx, &buf, []string{"add", "10.1.0.0/24"}))
	assert.Error(t, runRoutes(ctx, &buf, []string{"delete"}))
	assert.Error(t, runRoutes(ctx, &buf, []string{"list", "-o", "xml"}))
}

// syncBuffer is a bytes.Buffer safe for one writer and one polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunRoutes_Watch(t *testing.T) {
	cp, url := newControlServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- runRoutes(ctx, &out, []string{"watch", "--server", url})
	}()

	require.Eventually(t, func() bool { return cp.Hub().Subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)
	cp.AddRoute(routing.Route{Destination: "10.1.0.0/24", NextHop: "192.168.1.9", Metric: 50})

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("added 10.1.0.0/24 -> 192.168.1.9 (metric: 50)"))
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestRunStats(t *testing.T) {
	_, url := newControlServer(t)

	var buf bytes.Buffer
	require.NoError(t, runStats(context.Background(), &buf, []string{"--server", url, "-o", "yaml"}))
	assert.Contains(t, buf.String(), "routes_added: 2")
	assert.Contains(t, buf.String(), "api_requests: 1")

	assert.Error(t, runStats(context.Background(), &buf, []string{"--server", url, "-o", "xml"}))
}
