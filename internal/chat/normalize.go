package chat

import (
	"time"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

const (
	canonicalDate = "2006-01-02"
	yearMonth     = "2006-01"
	wallClock     = "15:04"

	tokenToday    = "오늘"
	tokenTomorrow = "내일"
)

// Normalizer turns a raw payload into a dispatchable Command. The locale
// and clock are injected so relative dates resolve the same way no matter
// how the host is configured.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

func NewNormalizer(loc *time.Location) *Normalizer {
	return &Normalizer{loc: loc, now: time.Now}
}

// NewNormalizerAt pins the clock. Used by tests and anything that needs
// reproducible relative-date resolution.
func NewNormalizerAt(loc *time.Location, now func() time.Time) *Normalizer {
	return &Normalizer{loc: loc, now: now}
}

// Normalize validates and fills a raw payload. owner is the verified
// identity of the caller and always wins over whatever the model produced.
// Normalizing an already-normalized payload is a no-op.
func (n *Normalizer) Normalize(raw *RawCommand, owner string) (*domain.Command, error) {
	cmd := &domain.Command{
		Action:       raw.Action,
		Date:         raw.Date,
		StartTime:    raw.StartTime,
		EndTime:      raw.EndTime,
		Title:        raw.Title,
		ID:           string(raw.ID),
		Memo:         raw.Memo,
		URL:          raw.URL,
		Notification: domain.CoerceNotification(raw.Notification),
		Repeat:       domain.CoerceRepeat(raw.Repeat),
		CheckBox:     bool(raw.CheckBox),
		UserEmail:    owner,
	}

	// Alias fields fill the canonical ones only when those are absent.
	if raw.StartDate != "" && cmd.Date == "" {
		cmd.Date = raw.StartDate
	}
	if raw.EndDate != "" && cmd.EndTime == "" {
		cmd.EndTime = raw.EndDate
	}

	cmd.Date = n.resolveRelative(cmd.Date)

	switch cmd.Action {
	case domain.ActionCreate:
		if err := n.require(raw, cmd.Action, map[string]string{
			"date": cmd.Date, "title": cmd.Title,
			"start_time": cmd.StartTime, "end_time": cmd.EndTime,
		}); err != nil {
			return nil, err
		}
		if err := n.checkDate(raw, cmd.Action, cmd.Date); err != nil {
			return nil, err
		}
		if err := n.checkTime(raw, cmd.Action, cmd.StartTime); err != nil {
			return nil, err
		}

	case domain.ActionRead:
		if err := n.require(raw, cmd.Action, map[string]string{"date": cmd.Date}); err != nil {
			return nil, err
		}
		if err := n.checkDate(raw, cmd.Action, cmd.Date); err != nil {
			return nil, err
		}

	case domain.ActionUpdate:
		if err := n.require(raw, cmd.Action, map[string]string{
			"id": cmd.ID, "date": cmd.Date, "title": cmd.Title,
			"start_time": cmd.StartTime, "end_time": cmd.EndTime,
		}); err != nil {
			return nil, err
		}
		if err := n.checkDate(raw, cmd.Action, cmd.Date); err != nil {
			return nil, err
		}
		if err := n.checkTime(raw, cmd.Action, cmd.StartTime); err != nil {
			return nil, err
		}

	case domain.ActionDelete:
		if cmd.ID == "" {
			if cmd.Title == "" {
				return nil, &ValidationError{Action: cmd.Action, Field: "title", Payload: raw}
			}
			if err := n.require(raw, cmd.Action, map[string]string{"date": cmd.Date}); err != nil {
				return nil, err
			}
			if err := n.checkDate(raw, cmd.Action, cmd.Date); err != nil {
				return nil, err
			}
		}

	case domain.ActionMonthRead:
		if err := n.require(raw, cmd.Action, map[string]string{"date": cmd.Date}); err != nil {
			return nil, err
		}
		// A full date is fine too; only the year-month prefix is used.
		if len(cmd.Date) < len(yearMonth) {
			return nil, &ValidationError{Action: cmd.Action, Field: "date", Payload: raw}
		}
		if _, err := time.ParseInLocation(yearMonth, cmd.Date[:len(yearMonth)], n.loc); err != nil {
			return nil, &ValidationError{Action: cmd.Action, Field: "date", Payload: raw}
		}

	default:
		return nil, &ValidationError{Action: cmd.Action, Field: "action", Payload: raw}
	}

	switch cmd.Action {
	case domain.ActionCreate, domain.ActionRead, domain.ActionUpdate, domain.ActionDelete:
		cmd.IsCalendarCommand = true
	}

	return cmd, nil
}

// resolveRelative maps the 오늘/내일 tokens to concrete dates at request
// time, in the configured locale.
func (n *Normalizer) resolveRelative(date string) string {
	switch date {
	case tokenToday:
		return n.now().In(n.loc).Format(canonicalDate)
	case tokenTomorrow:
		return n.now().In(n.loc).AddDate(0, 0, 1).Format(canonicalDate)
	default:
		return date
	}
}

func (n *Normalizer) require(raw *RawCommand, action string, fields map[string]string) error {
	for name, v := range fields {
		if v == "" {
			return &ValidationError{Action: action, Field: name, Payload: raw}
		}
	}
	return nil
}

func (n *Normalizer) checkDate(raw *RawCommand, action, date string) error {
	if _, err := time.ParseInLocation(canonicalDate, date, n.loc); err != nil {
		return &ValidationError{Action: action, Field: "date", Payload: raw}
	}
	return nil
}

func (n *Normalizer) checkTime(raw *RawCommand, action, t string) error {
	if _, err := time.Parse(wallClock, t); err != nil {
		return &ValidationError{Action: action, Field: "start_time", Payload: raw}
	}
	return nil
}
