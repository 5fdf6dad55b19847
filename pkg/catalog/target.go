package catalog

import "context"

type databaseKey struct{}

// ContextWithDatabase scopes catalog calls made with ctx to database.
func ContextWithDatabase(ctx context.Context, database string) context.Context {
	return context.WithValue(ctx, databaseKey{}, database)
}

// DatabaseFromContext returns the database set by ContextWithDatabase, or
// DefaultDatabase when none is set.
func DatabaseFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(databaseKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultDatabase
}
