package tracker

import (
	"errors"
	"fmt"
	"regexp"
)

// Error kinds. Callers branch on these with errors.Is: a missing credential is
// a configuration problem, the others are store or transient failures.
var (
	ErrMissingCredentials = errors.New("tracker credentials not configured")
	ErrNotFound           = errors.New("tracker store not found")
	ErrWrite              = errors.New("tracker write failed")
	ErrClosed             = errors.New("tracker sheet closed")
)

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// checkTableName guards identifiers interpolated into SQL.
func checkTableName(name string) error {
	if !reIdent.MatchString(name) {
		return fmt.Errorf("%w: invalid table name %q", ErrNotFound, name)
	}
	return nil
}

func writeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrWrite, err)
}
