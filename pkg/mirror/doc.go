// Package mirror implements synchronous dual-write mirroring.
//
// Every statement runs on the primary first and, if the primary accepts it,
// is immediately repeated on the secondary with identical text and
// arguments. The secondary's outcome never changes what the caller sees: a
// failed mirror is logged and counted, and the primary's result is returned.
// When the primary itself fails, the statement is retried on the secondary
// alone, so writes made during a primary outage exist only there. Nothing
// reconciles that divergence.
//
// Basic usage:
//
//	m := mirror.NewCoordinator(primary, secondary, mirror.WithLogger(logger))
//	res, err := m.Query(ctx, "UPDATE products SET price = $1 WHERE id = $2", 5, id)
//	if errors.Is(err, mirror.ErrAllStoresUnavailable) {
//		// neither store answered
//	}
package mirror
