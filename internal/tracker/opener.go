package tracker

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Backend names accepted by NewOpener.
const (
	BackendXLSX     = "xlsx"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendNotion   = "notion"
)

// Backend describes how a tracker store is opened.
type Backend struct {
	Name                string
	Opener              Opener
	RequiresCredentials bool
}

// NewBackend resolves a backend by name.
func NewBackend(name string, createIfMissing bool, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case BackendXLSX:
		return Backend{Name: name, Opener: XLSXOpener{CreateIfMissing: createIfMissing, Logger: logger}}, nil
	case BackendSQLite:
		return Backend{Name: name, Opener: SQLiteOpener{CreateIfMissing: createIfMissing, Logger: logger}}, nil
	case BackendMySQL:
		return Backend{Name: name, Opener: MySQLOpener{CreateIfMissing: createIfMissing, Logger: logger}, RequiresCredentials: true}, nil
	case BackendPostgres, "postgresql", "pg":
		return Backend{Name: BackendPostgres, Opener: PostgresOpener{CreateIfMissing: createIfMissing, Logger: logger}, RequiresCredentials: true}, nil
	case BackendNotion:
		return Backend{Name: name, Opener: NotionOpener{Logger: logger}, RequiresCredentials: true}, nil
	}
	return Backend{}, fmt.Errorf("unknown tracker backend %q (want one of %s)", name, strings.Join(Backends(), ", "))
}

// Backends lists the supported backend names.
func Backends() []string {
	out := []string{BackendXLSX, BackendSQLite, BackendMySQL, BackendPostgres, BackendNotion}
	sort.Strings(out)
	return out
}

// Lazy returns a lazily opened sheet for storeID on this backend.
func (b Backend) Lazy(storeID, credentials string, logger *slog.Logger) *Lazy {
	if logger == nil {
		logger = slog.Default()
	}
	return NewLazy(b.Opener, storeID, credentials, b.RequiresCredentials, logger.With("backend", b.Name))
}
