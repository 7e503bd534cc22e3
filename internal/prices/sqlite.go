package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLiteCache stores closes in a long (date, symbol, close) table.
type SQLiteCache struct {
	db      *sqlx.DB
	symbols []string
}

type closeRow struct {
	Date   string  `db:"date"`
	Symbol string  `db:"symbol"`
	Close  float64 `db:"close"`
}

// InitSchema creates the closes table when missing.
func InitSchema(db *sqlx.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS closes(
		date TEXT NOT NULL, symbol TEXT NOT NULL, close REAL NOT NULL,
		PRIMARY KEY(date, symbol)
	)`)
	return err
}

// NewSQLiteCache returns a cache reading the given tracked symbols.
func NewSQLiteCache(db *sqlx.DB, symbols []string) *SQLiteCache {
	s := make([]string, len(symbols))
	copy(s, symbols)
	return &SQLiteCache{db: db, symbols: s}
}

func (c *SQLiteCache) Read(ctx context.Context) (*Table, error) {
	var rows []closeRow
	if err := c.db.SelectContext(ctx, &rows, `SELECT date, symbol, close FROM closes ORDER BY date ASC`); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoCache
	}

	stored := map[string]struct{}{}
	byDay := map[time.Time]map[string]float64{}
	for _, r := range rows {
		d, err := parseDate(r.Date)
		if err != nil {
			return nil, err
		}
		if byDay[d] == nil {
			byDay[d] = map[string]float64{}
		}
		byDay[d][r.Symbol] = r.Close
		stored[r.Symbol] = struct{}{}
	}

	// Columns are the tracked symbols actually present, so a newly tracked
	// coin shows up as a cache that does not cover the tracked set.
	var cols []string
	for _, s := range c.symbols {
		if _, ok := stored[s]; ok {
			cols = append(cols, s)
		}
	}
	t := NewTable(cols)
	out := make([]Row, 0, len(byDay))
	for d, m := range byDay {
		out = append(out, Row{Date: d, Close: m})
	}
	t.Append(out...)
	return t, nil
}

// Write upserts every cell of the table in one transaction.
func (c *SQLiteCache) Write(ctx context.Context, t *Table) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, r := range t.Rows {
		for _, s := range t.Symbols {
			_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO closes(date,symbol,close) VALUES(?,?,?)`,
				r.Date.Format(dateLayout), s, r.Close[s])
			if err != nil {
				return fmt.Errorf("write close %s %s: %w", r.Date.Format(dateLayout), s, err)
			}
		}
	}
	return tx.Commit()
}
