// Package store provides the release history storage adapter.
package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Options configures the release history connection.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// DefaultTable is the release history table name used when none is
// configured.
const DefaultTable = "release_history"

// ClickHouseRecorder implements domain.Recorder against a ClickHouse
// table. One row per completed release; inserts are append-only and
// never updated.
type ClickHouseRecorder struct {
	conn  driver.Conn
	table string
}

// NewClickHouseRecorder opens a connection to the release history store.
func NewClickHouseRecorder(opts Options) (*ClickHouseRecorder, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("release history address is required")
	}
	if opts.Table == "" {
		opts.Table = DefaultTable
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to release history store: %w", err)
	}

	return &ClickHouseRecorder{
		conn:  conn,
		table: opts.Table,
	}, nil
}

// Record inserts one release row.
func (r *ClickHouseRecorder) Record(ctx context.Context, rec domain.ReleaseRecord) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (library, version, tag, commit, branch, status, released_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.table,
	)
	if err := r.conn.Exec(ctx, query,
		rec.Library, rec.Version, rec.Tag, rec.Commit, rec.Branch, rec.Status, rec.ReleasedAt,
	); err != nil {
		return fmt.Errorf("cannot record release %s: %w", rec.Version, err)
	}
	return nil
}

// Close releases the connection.
func (r *ClickHouseRecorder) Close() error {
	return r.conn.Close()
}

// NopRecorder implements domain.Recorder when release history is not
// configured.
type NopRecorder struct{}

// Record does nothing.
func (NopRecorder) Record(_ context.Context, _ domain.ReleaseRecord) error { return nil }

// Close does nothing.
func (NopRecorder) Close() error { return nil }
