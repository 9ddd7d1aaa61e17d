package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/roster/internal/domain"
)

const contactColumns = "id, name, position, location, email"

// SearchFilter narrows a contact search. Empty fields are ignored.
type SearchFilter struct {
	Name     string
	Location string
}

// PositionCount is one bucket of the position distribution.
type PositionCount struct {
	Position string `db:"position" json:"position"`
	Count    int64  `db:"count"    json:"count"`
}

// ContactRepository handles database operations for contacts.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository creates a new contact repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Upsert inserts c, or updates the position of the row with the same (name, location, email).
// A NULL email matches a NULL email. It returns the id of the inserted or updated row.
func (r *ContactRepository) Upsert(ctx context.Context, c domain.ContactRecord) (int64, error) {
	query := r.db.Rebind(`
		INSERT INTO contacts (name, position, location, email)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name, location, COALESCE(email, ''))
		DO UPDATE SET position = excluded.position
		RETURNING id
	`)

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, c.Name, c.Position, c.Location, c.Email).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert contact: %w", err)
	}

	return id, nil
}

// Create inserts a new contact and returns it with its id.
func (r *ContactRepository) Create(ctx context.Context, c domain.ContactRecord) (domain.ContactRecord, error) {
	query := r.db.Rebind(`
		INSERT INTO contacts (name, position, location, email)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	if err := r.db.QueryRowxContext(ctx, query, c.Name, c.Position, c.Location, c.Email).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ContactRecord{}, domain.ErrDuplicateContact
		}
		return domain.ContactRecord{}, fmt.Errorf("create contact: %w", err)
	}

	return c, nil
}

// GetByID returns the contact with id.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (domain.ContactRecord, error) {
	var c domain.ContactRecord
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`)

	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ContactRecord{}, domain.ErrContactNotFound
		}
		return domain.ContactRecord{}, fmt.Errorf("get contact %d: %w", id, err)
	}

	return c, nil
}

// List returns every contact ordered by id.
func (r *ContactRepository) List(ctx context.Context) ([]domain.ContactRecord, error) {
	contacts := []domain.ContactRecord{}
	if err := r.db.SelectContext(ctx, &contacts, `SELECT `+contactColumns+` FROM contacts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Search returns contacts whose name and/or location contain the filter values, ignoring case.
func (r *ContactRepository) Search(ctx context.Context, filter SearchFilter) ([]domain.ContactRecord, error) {
	where, args := buildSearchWhere(filter)
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts` + where + ` ORDER BY id`)

	contacts := []domain.ContactRecord{}
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return contacts, nil
}

func buildSearchWhere(filter SearchFilter) (string, []any) {
	var conditions []string
	var args []any

	if name := strings.TrimSpace(filter.Name); name != "" {
		conditions = append(conditions, `LOWER(name) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(name))
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		conditions = append(conditions, `LOWER(location) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(location))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// Page returns up to limit contacts ordered by id, skipping the first offset.
func (r *ContactRepository) Page(ctx context.Context, offset, limit int) ([]domain.ContactRecord, error) {
	query := r.db.Rebind(`SELECT ` + contactColumns + ` FROM contacts ORDER BY id LIMIT ? OFFSET ?`)

	contacts := []domain.ContactRecord{}
	if err := r.db.SelectContext(ctx, &contacts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("page contacts: %w", err)
	}
	return contacts, nil
}

// Count returns the number of contacts.
func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM contacts`); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

// Update applies patch to the contact with id inside a transaction. Nothing is changed when
// the contact does not exist or any step fails.
func (r *ContactRepository) Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.ContactRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.ContactRecord{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current domain.ContactRecord
	selectQuery := tx.Rebind(`SELECT ` + contactColumns + ` FROM contacts WHERE id = ?`)
	if getErr := tx.GetContext(ctx, &current, selectQuery, id); getErr != nil {
		if errors.Is(getErr, sql.ErrNoRows) {
			return domain.ContactRecord{}, domain.ErrContactNotFound
		}
		return domain.ContactRecord{}, fmt.Errorf("load contact %d: %w", id, getErr)
	}

	updated, applyErr := patch.Apply(current)
	if applyErr != nil {
		return domain.ContactRecord{}, applyErr
	}

	updateQuery := tx.Rebind(`
		UPDATE contacts
		SET name = ?, position = ?, location = ?, email = ?
		WHERE id = ?
	`)
	result, execErr := tx.ExecContext(ctx, updateQuery,
		updated.Name, updated.Position, updated.Location, updated.Email, id)
	if isUniqueViolation(execErr) {
		return domain.ContactRecord{}, domain.ErrDuplicateContact
	}
	if rowsErr := execRequireRows(result, execErr, domain.ErrContactNotFound); rowsErr != nil {
		if errors.Is(rowsErr, domain.ErrContactNotFound) {
			return domain.ContactRecord{}, rowsErr
		}
		return domain.ContactRecord{}, fmt.Errorf("update contact %d: %w", id, rowsErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return domain.ContactRecord{}, fmt.Errorf("commit contact update: %w", commitErr)
	}

	return updated, nil
}

// DeleteByName removes every contact with the given name and returns how many were removed.
// Returns ErrContactNotFound when none matched.
func (r *ContactRepository) DeleteByName(ctx context.Context, name string) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM contacts WHERE name = ?`), name)
	if err != nil {
		return 0, fmt.Errorf("delete contacts by name: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, fmt.Errorf("delete contacts by name: %w", affectedErr)
	}
	if n == 0 {
		return 0, domain.ErrContactNotFound
	}
	return n, nil
}

// DeleteByID removes the contact with id.
func (r *ContactRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM contacts WHERE id = ?`), id)
	if rowsErr := execRequireRows(result, err, domain.ErrContactNotFound); rowsErr != nil {
		if errors.Is(rowsErr, domain.ErrContactNotFound) {
			return rowsErr
		}
		return fmt.Errorf("delete contact %d: %w", id, rowsErr)
	}
	return nil
}

// PositionCounts returns how many contacts hold each position, most common first.
func (r *ContactRepository) PositionCounts(ctx context.Context) ([]PositionCount, error) {
	counts := []PositionCount{}
	query := `
		SELECT position, COUNT(*) AS count
		FROM contacts
		GROUP BY position
		ORDER BY count DESC, position
	`
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count positions: %w", err)
	}
	return counts, nil
}
