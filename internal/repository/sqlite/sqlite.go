package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"settingscatalog/internal/domain"

	_ "modernc.org/sqlite"
)

// Metadata keys
const (
	metaSavedAt    = "saved_at"
	metaEntryCount = "entry_count"
)

// Repository stores catalog snapshots in SQLite
type Repository struct {
	db *sql.DB
}

// New opens (creating if needed) the snapshot database at dbPath
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		title TEXT,
		params JSON,
		inject_entry_id TEXT,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		label TEXT NOT NULL,
		kind TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		data JSON NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS page_entries (
		page_id TEXT NOT NULL,
		entry_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (page_id, position),
		FOREIGN KEY (page_id) REFERENCES pages(id) ON DELETE CASCADE,
		FOREIGN KEY (entry_id) REFERENCES entries(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_owner ON entries(owner_id);
	CREATE INDEX IF NOT EXISTS idx_entries_to ON entries(to_id);
	CREATE INDEX IF NOT EXISTS idx_page_entries_entry ON page_entries(entry_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveCatalog replaces the stored snapshot with catalog
func (r *Repository) SaveCatalog(ctx context.Context, catalog *domain.Catalog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"page_entries", "entries", "pages"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer entryStmt.Close()

	for i := range catalog.Entries {
		args, err := entryInsertArgs(&catalog.Entries[i], i)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", catalog.Entries[i].ID, err)
		}
		if _, err := entryStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", catalog.Entries[i].ID, err)
		}
	}

	pageStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (`+pageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO page_entries (page_id, entry_id, position) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page entry insert: %w", err)
	}
	defer linkStmt.Close()

	for i := range catalog.Pages {
		pwe := &catalog.Pages[i]
		args, err := pageInsertArgs(pwe, i)
		if err != nil {
			return fmt.Errorf("failed to encode page %s: %w", pwe.Page.ID, err)
		}
		if _, err := pageStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", pwe.Page.ID, err)
		}
		for pos, e := range pwe.Entries {
			if _, err := linkStmt.ExecContext(ctx, string(pwe.Page.ID), string(e.ID), pos); err != nil {
				return fmt.Errorf("failed to link entry %s to page %s: %w", e.ID, pwe.Page.ID, err)
			}
		}
	}

	if err := setMetadata(ctx, tx, metaSavedAt, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := setMetadata(ctx, tx, metaEntryCount, strconv.Itoa(len(catalog.Entries))); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadCatalog reads the stored snapshot back in its original order
func (r *Repository) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	catalog := domain.NewCatalog()

	entries, err := r.listEntries(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY position`)
	if err != nil {
		return nil, err
	}
	byID := make(map[domain.EntryID]domain.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	catalog.Entries = entries

	pages, err := r.loadPages(ctx, byID)
	if err != nil {
		return nil, err
	}
	catalog.Pages = pages

	if err := r.attachEntries(ctx, catalog, byID); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (r *Repository) loadPages(ctx context.Context, byID map[domain.EntryID]domain.Entry) ([]domain.PageWithEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	pages := make([]domain.PageWithEntry, 0)
	for rows.Next() {
		var row pageRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pwe, err := row.toDomain(byID)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *pwe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pages: %w", err)
	}
	return pages, nil
}

func (r *Repository) attachEntries(ctx context.Context, catalog *domain.Catalog, byID map[domain.EntryID]domain.Entry) error {
	index := make(map[domain.PageID]int, len(catalog.Pages))
	for i, pwe := range catalog.Pages {
		index[pwe.Page.ID] = i
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT page_id, entry_id FROM page_entries ORDER BY page_id, position
	`)
	if err != nil {
		return fmt.Errorf("failed to query page entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pageID, entryID string
		if err := rows.Scan(&pageID, &entryID); err != nil {
			return fmt.Errorf("failed to scan page entry: %w", err)
		}
		i, ok := index[domain.PageID(pageID)]
		if !ok {
			continue
		}
		if entry, ok := byID[domain.EntryID(entryID)]; ok {
			catalog.Pages[i].Entries = append(catalog.Pages[i].Entries, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating page entries: %w", err)
	}
	return nil
}

// GetEntry returns the stored entry with id, or nil if there is none
func (r *Repository) GetEntry(ctx context.Context, id domain.EntryID) (*domain.Entry, error) {
	var row entryRow
	err := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, string(id)).
		Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	return row.toDomain()
}

// ListEntriesByOwner returns the stored entries owned by page id
func (r *Repository) ListEntriesByOwner(ctx context.Context, id domain.PageID) ([]domain.Entry, error) {
	return r.listEntries(ctx, `
		SELECT `+entryColumns+` FROM entries WHERE owner_id = ? ORDER BY position
	`, string(id))
}

func (r *Repository) listEntries(ctx context.Context, query string, args ...interface{}) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Entry, 0)
	for rows.Next() {
		var row entryRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// CountEntries returns the number of stored entries
func (r *Repository) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// SavedAt returns when the snapshot was last saved, or the zero time
func (r *Repository) SavedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, metaSavedAt).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	return time.Parse(time.RFC3339, value)
}

// Close releases the database
func (r *Repository) Close() error {
	return r.db.Close()
}

func setMetadata(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", key, err)
	}
	return nil
}
