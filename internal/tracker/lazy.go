package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Lazy opens the underlying store on first append and shares the handle across
// callers. A failed open is not cached; the next append tries again. Missing
// credentials are detected before calling the opener.
type Lazy struct {
	opener              Opener
	storeID             string
	credentials         string
	requiresCredentials bool
	logger              *slog.Logger

	mu     sync.Mutex
	sheet  Sheet
	closed bool
}

// NewLazy wraps opener. requiresCredentials marks backends that cannot work
// without a credential.
func NewLazy(opener Opener, storeID, credentials string, requiresCredentials bool, logger *slog.Logger) *Lazy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lazy{
		opener:              opener,
		storeID:             storeID,
		credentials:         credentials,
		requiresCredentials: requiresCredentials,
		logger:              logger,
	}
}

func (l *Lazy) handle(ctx context.Context) (Sheet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if l.sheet != nil {
		return l.sheet, nil
	}
	if l.requiresCredentials && l.credentials == "" {
		return nil, fmt.Errorf("%w: store %q needs credentials", ErrMissingCredentials, l.storeID)
	}
	sheet, err := l.opener.Open(ctx, l.storeID, l.credentials)
	if err != nil {
		l.logger.Error("tracker.open.failed", "store_id", l.storeID, "error", err)
		if errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: open %q: %w", ErrNotFound, l.storeID, err)
	}
	l.logger.Info("tracker.open.ok", "store_id", l.storeID)
	l.sheet = sheet
	return sheet, nil
}

// AppendRow opens the store if needed and appends values.
func (l *Lazy) AppendRow(ctx context.Context, values []string) (int, error) {
	sheet, err := l.handle(ctx)
	if err != nil {
		return 0, err
	}
	n, err := sheet.AppendRow(ctx, values)
	if err != nil {
		return 0, writeErr(err)
	}
	return n, nil
}

// Close closes the underlying sheet if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.sheet == nil {
		return nil
	}
	err := l.sheet.Close()
	l.sheet = nil
	return err
}
