package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"

	_ "github.com/tursodatabase/go-libsql"
)

// pragmas run on every new connection; SQLite scopes them per connection.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Open creates a SQLite connection pool via libSQL. Each pooled connection
// gets WAL journal mode, a 5 s busy timeout and foreign keys enabled.
//
// ":memory:" databases are pinned to a single connection, otherwise every
// pooled connection would see its own empty database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := "file:" + path

	// The libSQL driver type is unexported; borrow it from a throwaway handle.
	probe, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	drv, ok := probe.Driver().(driver.DriverContext)
	probe.Close()
	if !ok {
		return nil, fmt.Errorf("opening database: libsql driver has no connector")
	}
	base, err := drv.OpenConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := sql.OpenDB(&connector{base: base})
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// connector applies pragmas to each connection the pool opens.
type connector struct {
	base driver.Connector
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}
	q, ok := conn.(driver.QueryerContext)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("libsql connection cannot run queries")
	}

	// libSQL rejects Exec for PRAGMAs that return rows, but some PRAGMAs
	// (like foreign_keys=ON) return nothing. Query and close handles both.
	for _, p := range pragmas {
		rows, err := q.QueryContext(ctx, p, nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("executing %s: %w", p, err)
		}
		rows.Close()
	}
	return conn, nil
}

func (c *connector) Driver() driver.Driver {
	return c.base.Driver()
}

func (c *connector) Close() error {
	if cl, ok := c.base.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
