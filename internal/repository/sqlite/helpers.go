package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"settingscatalog/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals v to a nullable JSON string.
// Nil values and empty param lists are stored as NULL.
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if p, ok := v.(domain.Params); ok && len(p) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Column order must match between the *Columns constant, scanArgs() and
// the insert args helper of each table.

const entryColumns = `id, name, label, kind, owner_id, from_id, to_id, data, position`

// entryRow holds all columns from an entry query for scanning
type entryRow struct {
	ID       string
	Name     string
	Label    string
	Kind     string
	OwnerID  string
	FromID   string
	ToID     string
	Data     []byte
	Position int
}

func (r *entryRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.Name,
		&r.Label,
		&r.Kind,
		&r.OwnerID,
		&r.FromID,
		&r.ToID,
		&r.Data,
		&r.Position,
	}
}

// toDomain decodes the stored entry. Indexed columns win over the JSON blob.
func (r *entryRow) toDomain() (*domain.Entry, error) {
	entry := &domain.Entry{}
	if err := json.Unmarshal(r.Data, entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry %s: %w", r.ID, err)
	}

	entry.ID = domain.EntryID(r.ID)
	entry.Name = r.Name
	entry.Label = r.Label
	return entry, nil
}

func entryInsertArgs(e *domain.Entry, position int) ([]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		string(e.ID),
		e.Name,
		e.Label,
		string(e.Kind()),
		string(e.Owner.ID),
		string(e.From.ID),
		string(e.To.ID),
		string(data),
		position,
	}, nil
}

const pageColumns = `id, name, title, params, inject_entry_id, position`

// pageRow holds all columns from a page query for scanning
type pageRow struct {
	ID            string
	Name          string
	Title         sql.NullString
	ParamsJSON    sql.NullString
	InjectEntryID sql.NullString
	Position      int
}

func (r *pageRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.Name,
		&r.Title,
		&r.ParamsJSON,
		&r.InjectEntryID,
		&r.Position,
	}
}

// toDomain rebuilds the page; entries are attached by the caller
func (r *pageRow) toDomain(entries map[domain.EntryID]domain.Entry) (*domain.PageWithEntry, error) {
	var params domain.Params
	if err := unmarshalJSONField(r.ParamsJSON, &params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params of page %s: %w", r.ID, err)
	}

	pwe := &domain.PageWithEntry{
		Page: domain.Page{
			ID:     domain.PageID(r.ID),
			Name:   r.Name,
			Params: params,
		},
		Title:   nullToString(r.Title),
		Entries: make([]domain.Entry, 0),
	}

	if id := nullToString(r.InjectEntryID); id != "" {
		if inject, ok := entries[domain.EntryID(id)]; ok {
			pwe.InjectEntry = &inject
		}
	}
	return pwe, nil
}

func pageInsertArgs(pwe *domain.PageWithEntry, position int) ([]interface{}, error) {
	params, err := marshalToNull(pwe.Page.Params)
	if err != nil {
		return nil, err
	}

	var injectID string
	if pwe.InjectEntry != nil {
		injectID = string(pwe.InjectEntry.ID)
	}

	return []interface{}{
		string(pwe.Page.ID),
		pwe.Page.Name,
		stringToNull(pwe.Title),
		params,
		stringToNull(injectID),
		position,
	}, nil
}
