package cache

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
	id     TEXT PRIMARY KEY,
	synced INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS items (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id       TEXT    NOT NULL REFERENCES shopping_lists(id) ON DELETE CASCADE,
	name          TEXT    NOT NULL,
	current_qtd   INTEGER NOT NULL DEFAULT 0,
	target_qtd    INTEGER NOT NULL DEFAULT 0,
	acquired_flag INTEGER NOT NULL DEFAULT 0,
	synced        INTEGER NOT NULL DEFAULT 0,
	UNIQUE (list_id, name)
);
`

type sqliteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) the cache database at path and ensures
// the schema exists.
func NewSQLiteCache(path string) (ICache, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteCache{db: db}, nil
}

func (c *sqliteCache) CreateList(id string) error {
	res, err := c.db.Exec(`INSERT OR IGNORE INTO shopping_lists (id, synced) VALUES (?, 0)`, id)
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

func (c *sqliteCache) MarkListSynced(id string) error {
	_, err := c.db.Exec(`UPDATE shopping_lists SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark list synced: %w", err)
	}
	return nil
}

func (c *sqliteCache) SaveItem(listID, name string, current, target int) error {
	var exists int
	err := c.db.QueryRow(`SELECT 1 FROM shopping_lists WHERE id = ?`, listID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrListNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT INTO items (list_id, name, current_qtd, target_qtd, acquired_flag, synced)
		VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT (list_id, name) DO UPDATE
		SET current_qtd = excluded.current_qtd,
		    target_qtd = excluded.target_qtd,
		    acquired_flag = excluded.acquired_flag,
		    synced = 0`,
		listID, name, current, target, boolToInt(acquired(current, target)))
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (c *sqliteCache) MarkItemSynced(listID, name string) error {
	_, err := c.db.Exec(`UPDATE items SET synced = 1 WHERE list_id = ? AND name = ?`, listID, name)
	if err != nil {
		return fmt.Errorf("failed to mark item synced: %w", err)
	}
	return nil
}

func (c *sqliteCache) UpdateItem(listID, name string, current, target int) error {
	res, err := c.db.Exec(`
		UPDATE items
		SET current_qtd = ?, target_qtd = ?, acquired_flag = ?, synced = 0
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

func (c *sqliteCache) DeleteItem(listID, name string) error {
	_, err := c.db.Exec(`DELETE FROM items WHERE list_id = ? AND name = ?`, listID, name)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (c *sqliteCache) DeleteList(id string) error {
	_, err := c.db.Exec(`DELETE FROM shopping_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

func (c *sqliteCache) GetList(id string) (List, bool, error) {
	var synced int
	err := c.db.QueryRow(`SELECT synced FROM shopping_lists WHERE id = ?`, id).Scan(&synced)
	if err == sql.ErrNoRows {
		return List{}, false, nil
	}
	if err != nil {
		return List{}, false, fmt.Errorf("failed to load list: %w", err)
	}

	rows, err := c.db.Query(`
		SELECT name, current_qtd, target_qtd, acquired_flag, synced
		FROM items WHERE list_id = ? ORDER BY id`, id)
	if err != nil {
		return List{}, false, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	list := List{ID: id, Synced: synced != 0, Items: []Item{}}
	for rows.Next() {
		var it Item
		var flag, itemSynced int
		if err := rows.Scan(&it.Name, &it.Current, &it.Target, &flag, &itemSynced); err != nil {
			return List{}, false, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Acquired = flag != 0
		it.Synced = itemSynced != 0
		list.Items = append(list.Items, it)
	}
	if err := rows.Err(); err != nil {
		return List{}, false, fmt.Errorf("failed to load items: %w", err)
	}
	return list, true, nil
}

func (c *sqliteCache) ListIDs() ([]string, error) {
	return c.queryIDs(`SELECT id FROM shopping_lists`)
}

func (c *sqliteCache) UnsyncedListIDs() ([]string, error) {
	return c.queryIDs(`SELECT id FROM shopping_lists WHERE synced = 0`)
}

func (c *sqliteCache) UnsyncedItems(listID string) ([]Item, error) {
	rows, err := c.db.Query(`
		SELECT name, current_qtd, target_qtd, acquired_flag
		FROM items WHERE list_id = ? AND synced = 0 ORDER BY id`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		var flag int
		if err := rows.Scan(&it.Name, &it.Current, &it.Target, &flag); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Acquired = flag != 0
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load unsynced items: %w", err)
	}
	return items, nil
}

func (c *sqliteCache) HasUnsynced() (bool, error) {
	var one int
	err := c.db.QueryRow(`
		SELECT 1 WHERE EXISTS (SELECT 1 FROM shopping_lists WHERE synced = 0)
		          OR EXISTS (SELECT 1 FROM items WHERE synced = 0)`).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check unsynced state: %w", err)
	}
	return true, nil
}

func (c *sqliteCache) ReplaceItems(listID string, items []Item) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to replace items: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO shopping_lists (id, synced) VALUES (?, 1)
		ON CONFLICT (id) DO UPDATE SET synced = 1`, listID); err != nil {
		return fmt.Errorf("failed to replace items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items WHERE list_id = ?`, listID); err != nil {
		return fmt.Errorf("failed to replace items: %w", err)
	}
	for _, it := range items {
		if _, err := tx.Exec(`
			INSERT INTO items (list_id, name, current_qtd, target_qtd, acquired_flag, synced)
			VALUES (?, ?, ?, ?, ?, 1)`,
			listID, it.Name, it.Current, it.Target, boolToInt(it.Acquired)); err != nil {
			return fmt.Errorf("failed to replace items: %w", err)
		}
	}

	return tx.Commit()
}

func (c *sqliteCache) Close() error {
	return c.db.Close()
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (c *sqliteCache) queryIDs(query string) ([]string, error) {
	rows, err := c.db.Query(query)
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

func acquired(current, target int) bool {
	return target > 0 && current >= target
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
