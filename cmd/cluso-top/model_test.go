package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-failover/pkg/registry"
)

func statusServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/status":
			w.Write([]byte(`{"servers":[{"url":"localhost:3001","status":"down"},{"url":"localhost:3002","status":"alive"}],"currentServer":"localhost:3002"}`))
		case "/replication/status":
			w.Write([]byte(`{"mode":"async","pending_changes":3,"flushed_changes":10,"failed_flushes":1,"last_flush_error":"boom","flush_interval":"5s"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientPollsBothEndpoints(t *testing.T) {
	srv := statusServer(t)
	c := newClient(srv.URL+"/", srv.URL, time.Second)

	status, err := c.registryStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "localhost:3002", status.CurrentServer)
	assert.Len(t, status.Servers, 2)

	view, err := c.replicationStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, 3, view.PendingChanges)
	assert.Nil(t, view.Stats)
}

func TestClientWithoutCatalog(t *testing.T) {
	c := newClient("http://127.0.0.1:1", "", time.Second)
	view, err := c.replicationStatus(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, view)
}

func TestClientNon200(t *testing.T) {
	srv := statusServer(t)
	c := newClient(srv.URL+"/missing", "", time.Second)
	_, err := c.registryStatus(context.Background())
	assert.Error(t, err)
}

func TestBackendRowsMarksCurrent(t *testing.T) {
	rows := backendRows(registry.Status{
		Servers: []registry.ServerStatus{
			{URL: "a:1", Status: "down"},
			{URL: "b:2", Status: "alive"},
		},
		CurrentServer: "b:2",
	})

	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0][0])
	assert.Equal(t, "▶", rows[1][0])
	assert.Equal(t, "b:2", rows[1][1])
}

func TestModelAppliesPoll(t *testing.T) {
	srv := statusServer(t)
	m := initialModel(newClient(srv.URL, srv.URL, time.Second), time.Second)

	msg := pollCmd(m.client, time.Second)()
	updated, cmd := m.Update(msg)
	assert.NotNil(t, cmd, "a poll schedules the next tick")

	view := updated.(model).View()
	assert.Contains(t, view, "localhost:3002")
	assert.Contains(t, view, "Pending changes")
	assert.True(t, strings.Contains(view, "boom"))
}

func TestReplicationViewMirror(t *testing.T) {
	v := &ReplicationView{Mode: "sync", Stats: &MirrorStats{Queries: 5}}

	out := replicationView(v, nil)
	assert.Contains(t, out, "Replication mode: sync")
	assert.Contains(t, out, "Mirror failures")
	assert.NotContains(t, out, "Pending changes")
}
