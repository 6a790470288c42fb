package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	entdialect "entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// DefaultTable is the SQL table used when a backend has no table of its own.
const DefaultTable = "job_tracker"

// columnNames are the SQL column names for the tracker layout, in the same
// order as constants.TrackerColumns.
var columnNames = []string{
	"job_title",
	"company",
	"location",
	"job_type",
	"workplace_type",
	"salary",
	"experience_required",
	"skills_required",
	"posted_date",
	"application_deadline",
	"date_added",
	"job_url",
	"notes",
}

// dialect pairs an ent SQL dialect with the database/sql driver that serves
// it and the column types used when the table is created.
type dialect struct {
	name    string // ent dialect, drives identifier quoting and placeholders
	driver  string
	idType  string
	colType string
	options string
}

var (
	sqliteDialect = dialect{
		name:    entdialect.SQLite,
		driver:  "sqlite",
		idType:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		colType: "TEXT",
	}
	mysqlDialect = dialect{
		name:    entdialect.MySQL,
		driver:  "mysql",
		idType:  "BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT",
		colType: "TEXT",
		options: "DEFAULT CHARSET=utf8mb4",
	}
	postgresDialect = dialect{
		name:    entdialect.Postgres,
		driver:  "pgx",
		idType:  "BIGSERIAL PRIMARY KEY",
		colType: "TEXT NOT NULL DEFAULT ''",
	}
)

func (d dialect) createTable(table string) string {
	b := entsql.Dialect(d.name)
	cols := make([]entsql.Querier, 0, len(columnNames)+1)
	cols = append(cols, b.Column("id").Type(d.idType))
	for _, c := range columnNames {
		cols = append(cols, b.Column(c).Type(d.colType))
	}
	return b.String(func(sb *entsql.Builder) {
		sb.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(table).Wrap(func(sb *entsql.Builder) {
			sb.JoinComma(cols...)
		})
		if d.options != "" {
			sb.Pad().WriteString(d.options)
		}
	})
}

func (d dialect) insert(table string, values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return entsql.Dialect(d.name).
		Insert(table).
		Columns(columnNames...).
		Values(args...).
		Query()
}

func (d dialect) count(table string) string {
	b := entsql.Dialect(d.name)
	query, _ := b.Select(entsql.Count("*")).From(b.Table(table)).Query()
	return query
}

// SQLiteOpener opens a SQLite file; storeID is the database path and rows go
// to DefaultTable. Credentials are ignored.
type SQLiteOpener struct {
	CreateIfMissing bool
	Logger          *slog.Logger
}

func (o SQLiteOpener) Open(ctx context.Context, path, _ string) (Sheet, error) {
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	// one writer at a time; concurrent appends queue on the pool
	db.SetMaxOpenConns(1)
	return openSQLSheet(ctx, db, sqliteDialect, DefaultTable, o.CreateIfMissing, o.Logger)
}

// MySQLOpener opens a MySQL table; storeID is the table name and credentials
// is the DSN (user:pass@tcp(host:3306)/db).
type MySQLOpener struct {
	CreateIfMissing bool
	Logger          *slog.Logger
}

func (o MySQLOpener) Open(ctx context.Context, table, dsn string) (Sheet, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: mysql dsn", ErrMissingCredentials)
	}
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	db, err := sql.Open(mysqlDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	return openSQLSheet(ctx, db, mysqlDialect, table, o.CreateIfMissing, o.Logger)
}

func openSQLSheet(ctx context.Context, db *sql.DB, d dialect, table string, create bool, logger *slog.Logger) (Sheet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := checkTableName(table); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrNotFound, d.driver, err)
	}
	if create {
		ddl := d.createTable(table)
		logger.Debug("tracker.sql.create_table", "driver", d.driver, "sql", ddl)
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: create %s: %w", ErrWrite, table, err)
		}
	}
	// count now so a missing table surfaces at open, not on the first write
	var rows int
	if err := db.QueryRowContext(ctx, d.count(table)).Scan(&rows); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: table %s: %w", ErrNotFound, table, err)
	}
	logger.Info("tracker.sql.open", "driver", d.driver, "table", table, "rows", rows)
	return &sqlSheet{
		db:      db,
		dialect: d,
		table:   table,
		logger:  logger,
	}, nil
}

type sqlSheet struct {
	db      *sql.DB
	dialect dialect
	table   string
	logger  *slog.Logger
}

// AppendRow inserts the row and returns the table's row count, read in the
// same transaction as the insert.
func (s *sqlSheet) AppendRow(ctx context.Context, values []string) (n int, err error) {
	if len(values) != len(columnNames) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrWrite, len(values), len(columnNames))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, writeErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args := s.dialect.insert(s.table, values)
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return 0, writeErr(err)
	}
	if err = tx.QueryRowContext(ctx, s.dialect.count(s.table)).Scan(&n); err != nil {
		return 0, writeErr(err)
	}
	if err = tx.Commit(); err != nil {
		return 0, writeErr(err)
	}
	return n, nil
}

func (s *sqlSheet) Close() error {
	return s.db.Close()
}
