package mirror

import (
	"context"

	"github.com/dd0wney/cluso-failover/pkg/store"
)

// Backend adapts a Coordinator to callers that distinguish reads from
// writes. Sync mode treats both the same way.
type Backend struct {
	*Coordinator
}

// Write mirrors a modifying statement.
func (b Backend) Write(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	return b.Query(ctx, sql, args...)
}

// Read mirrors a query. Reads are mirrored too so both stores see the same
// statement stream.
func (b Backend) Read(ctx context.Context, sql string, args ...any) (*store.Result, error) {
	return b.Query(ctx, sql, args...)
}
