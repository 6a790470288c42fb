// Package tracker persists job rows to a spreadsheet-like tabular store.
package tracker

import "context"

// Sheet is an open handle on a tabular store. AppendRow must be safe for
// concurrent use; it returns the store's row count after the append.
type Sheet interface {
	AppendRow(ctx context.Context, values []string) (int, error)
	Close() error
}

// Opener opens a store by id. credentials is a backend-specific secret
// (API token or DSN); backends that need one return ErrMissingCredentials
// when it is empty, and ErrNotFound when the store does not exist.
type Opener interface {
	Open(ctx context.Context, storeID, credentials string) (Sheet, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, storeID, credentials string) (Sheet, error)

func (f OpenerFunc) Open(ctx context.Context, storeID, credentials string) (Sheet, error) {
	return f(ctx, storeID, credentials)
}
