// Package sqlstore implements collection backends over database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/evcraddock/luxury-estates/internal/collection"
)

// Dialect selects placeholder syntax for a SQL driver.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
	MySQL
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how records of type T map onto a SQL table.
type Table[T any] struct {
	Name string
	// Columns lists every column; Columns[0] is the primary key.
	Columns     []string
	OrderColumn string
	// Values returns the column values of rec in Columns order.
	Values func(rec T) ([]any, error)
	// Scan reads one row selected in Columns order.
	Scan func(row Scanner) (T, error)
}

// Backend stores records of one table. It implements collection.Backend
// and collection.OrderWriter.
type Backend[T any] struct {
	db      *sql.DB
	dialect Dialect
	table   Table[T]
}

// New creates a backend for table on db.
func New[T any](db *sql.DB, dialect Dialect, table Table[T]) *Backend[T] {
	return &Backend[T]{db: db, dialect: dialect, table: table}
}

func (b *Backend[T]) q(query string) string {
	return b.dialect.Rebind(query)
}

// List returns every row of the table.
func (b *Backend[T]) List(ctx context.Context) (recs []T, err error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(b.table.Columns, ", "), b.table.Name)
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", b.table.Name, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rec, err := b.table.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", b.table.Name, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", b.table.Name, err)
	}
	return recs, nil
}

// Insert adds a row.
func (b *Backend[T]) Insert(ctx context.Context, rec T) error {
	vals, err := b.table.Values(rec)
	if err != nil {
		return fmt.Errorf("encoding %s row: %w", b.table.Name, err)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(b.table.Columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table.Name, strings.Join(b.table.Columns, ", "), marks)
	if _, err := b.db.ExecContext(ctx, b.q(query), vals...); err != nil {
		return fmt.Errorf("inserting into %s: %w", b.table.Name, err)
	}
	return nil
}

// Update rewrites every column of the row with rec's primary key.
func (b *Backend[T]) Update(ctx context.Context, rec T) error {
	vals, err := b.table.Values(rec)
	if err != nil {
		return fmt.Errorf("encoding %s row: %w", b.table.Name, err)
	}
	sets := make([]string, 0, len(b.table.Columns)-1)
	for _, c := range b.table.Columns[1:] {
		sets = append(sets, c+" = ?")
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		b.table.Name, strings.Join(sets, ", "), b.table.Columns[0])
	args := append(vals[1:len(vals):len(vals)], vals[0])

	result, err := b.db.ExecContext(ctx, b.q(query), args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", b.table.Name, err)
	}
	return b.checkAffected(result, fmt.Sprint(vals[0]))
}

// Delete removes the row with the given id.
func (b *Backend[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", b.table.Name, b.table.Columns[0])
	result, err := b.db.ExecContext(ctx, b.q(query), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", b.table.Name, err)
	}
	return b.checkAffected(result, id)
}

// WriteOrders applies every change in one transaction.
func (b *Backend[T]) WriteOrders(ctx context.Context, changes []collection.OrderChange) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	query := b.q(fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		b.table.Name, b.table.OrderColumn, b.table.Columns[0]))
	for _, c := range changes {
		result, err := tx.ExecContext(ctx, query, c.Order, c.ID)
		if err == nil {
			err = b.checkAffected(result, c.ID)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("writing order of %s: %w (also failed to roll back: %v)", c.ID, err, rbErr)
			}
			return fmt.Errorf("writing order of %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing orders: %w", err)
	}
	return nil
}

func (b *Backend[T]) checkAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", b.table.Name, id, collection.ErrNotFound)
	}
	return nil
}
