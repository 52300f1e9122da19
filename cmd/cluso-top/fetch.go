package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/registry"
)

// ReplicationView is the subset of /replication/status shown on screen. It
// covers both the async coordinator and the sync mirror.
type ReplicationView struct {
	Mode           string       `json:"mode"`
	PendingChanges int          `json:"pending_changes"`
	FlushedChanges uint64       `json:"flushed_changes"`
	FailedFlushes  uint64       `json:"failed_flushes"`
	LastFlushError string       `json:"last_flush_error"`
	Stats          *MirrorStats `json:"stats"`
}

// MirrorStats is present only when the catalog runs the sync mirror.
type MirrorStats struct {
	Queries        uint64 `json:"queries"`
	MirrorFailures uint64 `json:"mirror_failures"`
	SecondaryOnly  uint64 `json:"secondary_only"`
}

// client polls the discovery service and, optionally, one catalog server.
type client struct {
	http        *http.Client
	registryURL string
	catalogURL  string
}

func newClient(registryURL, catalogURL string, timeout time.Duration) *client {
	return &client{
		http:        &http.Client{Timeout: timeout},
		registryURL: strings.TrimRight(registryURL, "/"),
		catalogURL:  strings.TrimRight(catalogURL, "/"),
	}
}

func (c *client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// registryStatus fetches the backend table.
func (c *client) registryStatus(ctx context.Context) (registry.Status, error) {
	var status registry.Status
	err := c.getJSON(ctx, c.registryURL+"/status", &status)
	return status, err
}

// replicationStatus fetches the catalog's replication state. It returns nil
// without error when no catalog URL is configured.
func (c *client) replicationStatus(ctx context.Context) (*ReplicationView, error) {
	if c.catalogURL == "" {
		return nil, nil
	}
	var view ReplicationView
	if err := c.getJSON(ctx, c.catalogURL+"/replication/status", &view); err != nil {
		return nil, err
	}
	return &view, nil
}
