package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

// Repository is the persistence port the dispatcher routes commands to.
// Every operation is scoped to an owner; implementations report a missing
// or mismatched-owner row with domain.ErrNotFound.
type Repository interface {
	Insert(entry *domain.PlannerEntry) (*domain.PlannerEntry, error)
	FindOne(id, owner string) (*domain.PlannerEntry, error)
	// FindByOwnerAndDate returns the owner's entries on one canonical
	// date, ordered by start time ascending.
	FindByOwnerAndDate(owner, date string) ([]domain.PlannerEntry, error)
	// FindByOwnerAndRange returns the owner's entries whose start day
	// falls inside the inclusive range, ordered by (start day, start
	// time) ascending.
	FindByOwnerAndRange(owner string, r domain.DateRange) ([]domain.PlannerEntry, error)
	Update(entry *domain.PlannerEntry, patch domain.EntryPatch) (*domain.PlannerEntry, error)
	Destroy(entry *domain.PlannerEntry) error
}

// Event is a deferred broadcast. The dispatcher never talks to a transport
// itself; it hands these back for the caller to publish.
type Event struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// TopicPlanner carries entry lifecycle events for connected clients.
const TopicPlanner = "planner"

// Result is the uniform outcome of a dispatched command. Exactly one of
// Entry/Entries is populated except for empty reads, where Entries is an
// empty (non-nil) slice. NoEntries marks an empty month read, which is a
// distinct outcome from an empty single-day read.
type Result struct {
	Action    string                `json:"action"`
	Entry     *domain.PlannerEntry  `json:"entry,omitempty"`
	Entries   []domain.PlannerEntry `json:"entries,omitempty"`
	NoEntries bool                  `json:"no_entries,omitempty"`

	Events []Event `json:"-"`
}

// Dispatcher routes normalized commands to repository operations.
type Dispatcher struct {
	repo Repository
}

func NewDispatcher(repo Repository) *Dispatcher {
	return &Dispatcher{repo: repo}
}

// Dispatch executes exactly one repository operation for the command.
// The command must already be normalized.
func (d *Dispatcher) Dispatch(cmd *domain.Command) (*Result, error) {
	switch cmd.Action {
	case domain.ActionCreate:
		return d.create(cmd)
	case domain.ActionRead:
		return d.read(cmd)
	case domain.ActionUpdate:
		return d.update(cmd)
	case domain.ActionDelete:
		return d.delete(cmd)
	case domain.ActionMonthRead:
		return d.monthRead(cmd)
	default:
		// Unreachable for normalized commands; kept as a guard.
		return nil, &ValidationError{Action: cmd.Action, Field: "action"}
	}
}

func (d *Dispatcher) create(cmd *domain.Command) (*Result, error) {
	entry := &domain.PlannerEntry{
		OwnerEmail:   cmd.UserEmail,
		StartDay:     cmd.Date,
		EndDay:       cmd.Date,
		Title:        cmd.Title,
		StartTime:    cmd.StartTime,
		EndTime:      cmd.EndTime,
		Memo:         cmd.Memo,
		URL:          cmd.URL,
		Notification: cmd.Notification,
		Repeat:       cmd.Repeat,
	}

	created, err := d.repo.Insert(entry)
	if err != nil {
		return nil, &StorageError{Op: "insert", Err: err}
	}

	res := &Result{Action: cmd.Action, Entry: created}
	res.Events = append(res.Events, Event{Topic: TopicPlanner, Payload: map[string]any{
		"action": cmd.Action,
		"entry":  created,
	}})
	return res, nil
}

func (d *Dispatcher) read(cmd *domain.Command) (*Result, error) {
	entries, err := d.repo.FindByOwnerAndDate(cmd.UserEmail, cmd.Date)
	if err != nil {
		return nil, &StorageError{Op: "find by date", Err: err}
	}
	if entries == nil {
		// An empty day is a valid outcome, not an error.
		entries = []domain.PlannerEntry{}
	}
	return &Result{Action: cmd.Action, Entries: entries}, nil
}

func (d *Dispatcher) update(cmd *domain.Command) (*Result, error) {
	entry, err := d.repo.FindOne(cmd.ID, cmd.UserEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &NotFoundError{ID: cmd.ID}
		}
		return nil, &StorageError{Op: "find one", Err: err}
	}

	patch := domain.EntryPatch{
		StartDay:     cmd.Date,
		EndDay:       cmd.Date,
		Title:        cmd.Title,
		StartTime:    cmd.StartTime,
		EndTime:      cmd.EndTime,
		Notification: cmd.Notification,
		Repeat:       cmd.Repeat,
	}
	if cmd.Memo != "" {
		patch.Memo = &cmd.Memo
	}
	if cmd.URL != "" {
		patch.URL = &cmd.URL
	}
	if cmd.CheckBox {
		v := true
		patch.CheckBox = &v
	}

	updated, err := d.repo.Update(entry, patch)
	if err != nil {
		return nil, &StorageError{Op: "update", Err: err}
	}

	res := &Result{Action: cmd.Action, Entry: updated}
	res.Events = append(res.Events, Event{Topic: TopicPlanner, Payload: map[string]any{
		"action": cmd.Action,
		"entry":  updated,
	}})
	return res, nil
}

func (d *Dispatcher) delete(cmd *domain.Command) (*Result, error) {
	id := cmd.ID
	if id == "" {
		// Fallback resolution: no id supplied, so search the day's
		// entries for an exact title match. The repository returns
		// them in ascending start-time order, so ties between
		// same-titled entries resolve to the earliest one.
		entries, err := d.repo.FindByOwnerAndDate(cmd.UserEmail, cmd.Date)
		if err != nil {
			return nil, &StorageError{Op: "find by date", Err: err}
		}
		for _, e := range entries {
			if e.Title == cmd.Title {
				id = e.ID
				break
			}
		}
		if id == "" {
			return nil, &AmbiguousDeleteError{Title: cmd.Title, Date: cmd.Date}
		}
	}

	entry, err := d.repo.FindOne(id, cmd.UserEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, &StorageError{Op: "find one", Err: err}
	}

	if err := d.repo.Destroy(entry); err != nil {
		return nil, &StorageError{Op: "destroy", Err: err}
	}

	res := &Result{Action: cmd.Action, Entry: entry}
	res.Events = append(res.Events, Event{Topic: TopicPlanner, Payload: map[string]any{
		"action": cmd.Action,
		"entry":  entry,
	}})
	return res, nil
}

func (d *Dispatcher) monthRead(cmd *domain.Command) (*Result, error) {
	rng, err := monthRange(cmd.Date)
	if err != nil {
		return nil, &ValidationError{Action: cmd.Action, Field: "date"}
	}

	entries, err := d.repo.FindByOwnerAndRange(cmd.UserEmail, rng)
	if err != nil {
		return nil, &StorageError{Op: "find by range", Err: err}
	}
	if len(entries) == 0 {
		return &Result{Action: cmd.Action, NoEntries: true}, nil
	}
	return &Result{Action: cmd.Action, Entries: entries}, nil
}

// monthRange computes the inclusive calendar-month range for a YYYY-MM
// value (a full YYYY-MM-DD is accepted; the day part is ignored).
func monthRange(date string) (domain.DateRange, error) {
	if len(date) < len(yearMonth) {
		return domain.DateRange{}, fmt.Errorf("not a year-month value: %q", date)
	}
	first, err := time.Parse(yearMonth, date[:len(yearMonth)])
	if err != nil {
		return domain.DateRange{}, err
	}
	last := first.AddDate(0, 1, -1)
	return domain.DateRange{
		From: first.Format(canonicalDate),
		To:   last.Format(canonicalDate),
	}, nil
}
