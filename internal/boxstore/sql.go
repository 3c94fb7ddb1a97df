package boxstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/piwi3910/slackpack/internal/geom"
)

const createBoxesTableDDL = `
CREATE TABLE %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bottom_left_x REAL NOT NULL,
	bottom_left_y REAL NOT NULL,
	top_right_x REAL NOT NULL,
	top_right_y REAL NOT NULL,
	min_size REAL NOT NULL,
	name TEXT NOT NULL,
	detail_type TEXT NOT NULL
)`

const createMinSizeIndexDDL = `CREATE INDEX %s ON %s (min_size DESC)`

// SQLStorage is the single-table external Storage backend: a durable
// SQLite table fronted by the shared cached coordinator. Grounded on
// original_source/storage/{database_box_storage,hybrid_box_storage}.py;
// uses database/sql against the pure-Go modernc.org/sqlite driver.
type SQLStorage struct {
	db     *sql.DB
	table  string
	coord  *cachedCoordinator
	ownsDB bool
}

// SQLStorageOption configures NewSQLStorage.
type SQLStorageOption func(*sqlStorageConfig)

type sqlStorageConfig struct {
	tableName string
	cacheSize int
}

// WithTableName overrides the default "boxes" table name.
func WithTableName(name string) SQLStorageOption {
	return func(c *sqlStorageConfig) { c.tableName = name }
}

// WithCacheSize overrides the default 1,000,000-row in-memory cache window.
func WithCacheSize(size int) SQLStorageOption {
	return func(c *sqlStorageConfig) { c.cacheSize = size }
}

// NewSQLStorage opens (or creates) a SQLite database at dsn and prepares
// a fresh boxes table, dropping any pre-existing one of the same name.
func NewSQLStorage(dsn string, opts ...SQLStorageOption) (*SQLStorage, error) {
	cfg := sqlStorageConfig{tableName: "boxes", cacheSize: 1_000_000}
	for _, opt := range opts {
		opt(&cfg)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("boxstore: open %s: %w", dsn, err)
	}
	s := &SQLStorage{db: db, table: cfg.tableName, ownsDB: true}
	if err := s.prepareTable(); err != nil {
		db.Close()
		return nil, err
	}
	s.coord = newCachedCoordinator(s, cfg.cacheSize)
	return s, nil
}

func (s *SQLStorage) prepareTable() error {
	if _, err := s.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table)); err != nil {
		return fmt.Errorf("boxstore: drop table %s: %w", s.table, err)
	}
	if _, err := s.db.Exec(fmt.Sprintf(createBoxesTableDDL, s.table)); err != nil {
		return fmt.Errorf("boxstore: create table %s: %w", s.table, err)
	}
	idxName := "idx_" + s.table + "_min_size"
	if _, err := s.db.Exec(fmt.Sprintf(createMinSizeIndexDDL, idxName, s.table)); err != nil {
		return fmt.Errorf("boxstore: create index on %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStorage) Add(box geom.Rectangle) error {
	return s.coord.add(box)
}

func (s *SQLStorage) PeekMax() (geom.Rectangle, bool, error) {
	return s.coord.peekMax()
}

func (s *SQLStorage) PopMax() (geom.Rectangle, bool, error) {
	return s.coord.popMax()
}

func (s *SQLStorage) Close() error {
	return s.coord.close()
}

// insertBatch satisfies syncBackend by inserting boxes in one transaction.
func (s *SQLStorage) insertBatch(boxes []geom.Rectangle) error {
	if len(boxes) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("boxstore: begin insert tx: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %s (bottom_left_x, bottom_left_y, top_right_x, top_right_y, min_size, name, detail_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("boxstore: prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, box := range boxes {
		if _, err := stmt.Exec(box.BottomLeft.X, box.BottomLeft.Y, box.TopRight.X, box.TopRight.Y,
			box.MinSide(), box.Name, string(box.DetailType)); err != nil {
			tx.Rollback()
			return fmt.Errorf("boxstore: insert box %s: %w", box.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("boxstore: commit insert tx: %w", err)
	}
	return nil
}

// deleteByNames satisfies syncBackend by deleting rows whose name is in
// the given set, inside a single transaction.
func (s *SQLStorage) deleteByNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("boxstore: begin delete tx: %w", err)
	}
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		args[i] = n
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE name IN (%s)", s.table, strings.Join(placeholders, ", "))
	if _, err := tx.Exec(query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("boxstore: delete by name: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("boxstore: commit delete tx: %w", err)
	}
	return nil
}

// fetchTopN satisfies syncBackend by returning the n durable rows with
// the largest min_size.
func (s *SQLStorage) fetchTopN(n int) ([]geom.Rectangle, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT bottom_left_x, bottom_left_y, top_right_x, top_right_y, name, detail_type
		 FROM %s ORDER BY min_size DESC LIMIT ?`, s.table), n)
	if err != nil {
		return nil, fmt.Errorf("boxstore: fetch top %d: %w", n, err)
	}
	defer rows.Close()
	return scanRectangles(rows)
}

func scanRectangles(rows *sql.Rows) ([]geom.Rectangle, error) {
	var out []geom.Rectangle
	for rows.Next() {
		var blx, bly, trx, try float64
		var name, detailType string
		if err := rows.Scan(&blx, &bly, &trx, &try, &name, &detailType); err != nil {
			return nil, fmt.Errorf("boxstore: scan row: %w", err)
		}
		out = append(out, geom.New(geom.Point{X: blx, Y: bly}, geom.Point{X: trx, Y: try}, name, geom.Type(detailType)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("boxstore: row iteration: %w", err)
	}
	return out, nil
}

func (s *SQLStorage) close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
