// Package store persists planner entries in sqlite. The table keeps the
// legacy YYYY.MM.DD day literal; both directions of the conversion to the
// canonical YYYY-MM-DD form happen here and nowhere else.
package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

//go:embed schema.sql
var schema string

// Store handles database operations for planner entries.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if strings.Contains(dbPath, ":memory:") {
		// Every pooled connection to :memory: would otherwise get its
		// own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// toStorageDay converts a canonical YYYY-MM-DD literal to the stored
// YYYY.MM.DD form. Lexicographic order is preserved, so range and order
// clauses work directly on the stored literal.
func toStorageDay(day string) string {
	return strings.ReplaceAll(day, "-", ".")
}

func fromStorageDay(day string) string {
	return strings.ReplaceAll(day, ".", "-")
}

const entryColumns = "id, user_email, start_day, end_day, title, start_time, end_time, memo, url, notification, repeat, check_box, created_at"

func scanEntry(row interface{ Scan(...any) error }) (*domain.PlannerEntry, error) {
	var e domain.PlannerEntry
	err := row.Scan(&e.ID, &e.OwnerEmail, &e.StartDay, &e.EndDay, &e.Title,
		&e.StartTime, &e.EndTime, &e.Memo, &e.URL,
		&e.Notification, &e.Repeat, &e.CheckBox, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.StartDay = fromStorageDay(e.StartDay)
	e.EndDay = fromStorageDay(e.EndDay)
	return &e, nil
}

// Insert creates a new entry with a fresh id and returns the stored copy.
// EndDay defaults to StartDay when absent; enumeration fields coerce to
// their none sentinel.
func (s *Store) Insert(entry *domain.PlannerEntry) (*domain.PlannerEntry, error) {
	stored := *entry
	stored.ID = uuid.New().String()
	stored.CreatedAt = time.Now()
	if stored.EndDay == "" {
		stored.EndDay = stored.StartDay
	}
	stored.Notification = domain.CoerceNotification(stored.Notification)
	stored.Repeat = domain.CoerceRepeat(stored.Repeat)

	_, err := s.db.Exec(
		"INSERT INTO planners ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		stored.ID, stored.OwnerEmail, toStorageDay(stored.StartDay), toStorageDay(stored.EndDay),
		stored.Title, stored.StartTime, stored.EndTime, stored.Memo, stored.URL,
		stored.Notification, stored.Repeat, stored.CheckBox, stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return &stored, nil
}

// FindOne retrieves an entry by id, scoped to its owner. A row belonging
// to another owner reports domain.ErrNotFound, never the row.
func (s *Store) FindOne(id, owner string) (*domain.PlannerEntry, error) {
	row := s.db.QueryRow(
		"SELECT "+entryColumns+" FROM planners WHERE id = ? AND user_email = ?",
		id, owner,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return entry, nil
}

// FindByOwnerAndDate returns the owner's entries starting on the given
// canonical date, ordered by start time ascending.
func (s *Store) FindByOwnerAndDate(owner, date string) ([]domain.PlannerEntry, error) {
	rows, err := s.db.Query(
		"SELECT "+entryColumns+" FROM planners WHERE user_email = ? AND start_day = ? ORDER BY start_time ASC",
		owner, toStorageDay(date),
	)
	if err != nil {
		return nil, fmt.Errorf("find by date: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// FindByOwnerAndRange returns the owner's entries whose start day lies in
// the inclusive range, ordered by start day then start time.
func (s *Store) FindByOwnerAndRange(owner string, r domain.DateRange) ([]domain.PlannerEntry, error) {
	rows, err := s.db.Query(
		"SELECT "+entryColumns+" FROM planners WHERE user_email = ? AND start_day BETWEEN ? AND ? ORDER BY start_day ASC, start_time ASC",
		owner, toStorageDay(r.From), toStorageDay(r.To),
	)
	if err != nil {
		return nil, fmt.Errorf("find by range: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// FindStartingAt returns every entry, regardless of owner, starting at the
// given canonical date and wall-clock time. The reminder sweeper uses it.
func (s *Store) FindStartingAt(date, startTime string) ([]domain.PlannerEntry, error) {
	rows, err := s.db.Query(
		"SELECT "+entryColumns+" FROM planners WHERE start_day = ? AND start_time = ?",
		toStorageDay(date), startTime,
	)
	if err != nil {
		return nil, fmt.Errorf("find starting at: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]domain.PlannerEntry, error) {
	var entries []domain.PlannerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Update applies a patch to an already-fetched entry and returns the
// updated snapshot. Enumeration fields in the patch coerce the same way
// inserts do.
func (s *Store) Update(entry *domain.PlannerEntry, patch domain.EntryPatch) (*domain.PlannerEntry, error) {
	updated := *entry
	if patch.StartDay != "" {
		updated.StartDay = patch.StartDay
	}
	if patch.EndDay != "" {
		updated.EndDay = patch.EndDay
	}
	if patch.Title != "" {
		updated.Title = patch.Title
	}
	if patch.StartTime != "" {
		updated.StartTime = patch.StartTime
	}
	if patch.EndTime != "" {
		updated.EndTime = patch.EndTime
	}
	if patch.Memo != nil {
		updated.Memo = *patch.Memo
	}
	if patch.URL != nil {
		updated.URL = *patch.URL
	}
	if patch.Notification != "" {
		updated.Notification = domain.CoerceNotification(patch.Notification)
	}
	if patch.Repeat != "" {
		updated.Repeat = domain.CoerceRepeat(patch.Repeat)
	}
	if patch.CheckBox != nil {
		updated.CheckBox = *patch.CheckBox
	}

	res, err := s.db.Exec(
		`UPDATE planners SET start_day = ?, end_day = ?, title = ?, start_time = ?, end_time = ?,
			memo = ?, url = ?, notification = ?, repeat = ?, check_box = ?
		 WHERE id = ? AND user_email = ?`,
		toStorageDay(updated.StartDay), toStorageDay(updated.EndDay), updated.Title,
		updated.StartTime, updated.EndTime, updated.Memo, updated.URL,
		updated.Notification, updated.Repeat, updated.CheckBox,
		updated.ID, updated.OwnerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrNotFound
	}
	return &updated, nil
}

// Destroy deletes the entry. The owner scope is part of the predicate, so
// a stale or cross-owner entry reports domain.ErrNotFound.
func (s *Store) Destroy(entry *domain.PlannerEntry) error {
	res, err := s.db.Exec(
		"DELETE FROM planners WHERE id = ? AND user_email = ?",
		entry.ID, entry.OwnerEmail,
	)
	if err != nil {
		return fmt.Errorf("destroy entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
