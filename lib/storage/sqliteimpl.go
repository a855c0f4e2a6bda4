package storage

import (
	"database/sql"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"
)

// --------------------------------------------------------------------------
// SQLite Implementation
// --------------------------------------------------------------------------

const schema = `
CREATE TABLE IF NOT EXISTS shopping_lists (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS items (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id       TEXT    NOT NULL REFERENCES shopping_lists(id) ON DELETE CASCADE,
	name          TEXT    NOT NULL,
	current_qtd   INTEGER NOT NULL DEFAULT 0,
	target_qtd    INTEGER NOT NULL DEFAULT 0,
	acquired_flag INTEGER NOT NULL DEFAULT 0,
	UNIQUE (list_id, name)
);
`

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file at path and ensures
// the schema exists. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (IStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) CreateList(id string) error {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO shopping_lists (id) VALUES (?)`, id)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	if n == 0 {
		return ErrListExists
	}
	return nil
}

func (s *sqliteStore) CreateItem(listID, name string, current, target int) error {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM shopping_lists WHERE id = ?`, listID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrListNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO items (list_id, name, current_qtd, target_qtd, acquired_flag)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (list_id, name) DO UPDATE
		SET current_qtd = excluded.current_qtd,
		    target_qtd = excluded.target_qtd,
		    acquired_flag = excluded.acquired_flag`,
		listID, name, current, target, boolToInt(acquired(current, target)))
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (s *sqliteStore) UpdateItem(listID, name string, current, target int) error {
	res, err := s.db.Exec(`
		UPDATE items
		SET current_qtd = ?, target_qtd = ?, acquired_flag = ?
		WHERE list_id = ? AND name = ?`,
		current, target, boolToInt(acquired(current, target)), listID, name)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *sqliteStore) DeleteItem(listID, name string) error {
	_, err := s.db.Exec(`DELETE FROM items WHERE list_id = ? AND name = ?`, listID, name)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *sqliteStore) GetList(id string) (List, bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM shopping_lists WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return List{}, false, nil
	}
	if err != nil {
		return List{}, false, fmt.Errorf("failed to load list: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT name, current_qtd, target_qtd, acquired_flag
		FROM items WHERE list_id = ? ORDER BY id`, id)
	if err != nil {
		return List{}, false, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	list := List{ID: id, Items: []Item{}}
	for rows.Next() {
		var it Item
		var flag int
		if err := rows.Scan(&it.Name, &it.Current, &it.Target, &flag); err != nil {
			return List{}, false, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Acquired = flag != 0
		list.Items = append(list.Items, it)
	}
	if err := rows.Err(); err != nil {
		return List{}, false, fmt.Errorf("failed to load items: %w", err)
	}
	return list, true, nil
}

func (s *sqliteStore) ListIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM shopping_lists`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ids: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func acquired(current, target int) bool {
	return target > 0 && current >= target
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
