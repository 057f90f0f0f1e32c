package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repository implementations when an id/owner
// pair does not resolve to a row. An owner mismatch is indistinguishable
// from a missing row.
var ErrNotFound = errors.New("planner entry not found")

// PlannerEntry is one scheduled item owned by a user. Dates are carried in
// the canonical YYYY-MM-DD form everywhere outside the storage layer.
type PlannerEntry struct {
	ID           string    `json:"id"`
	OwnerEmail   string    `json:"userEmail"`
	StartDay     string    `json:"start_day"`
	EndDay       string    `json:"end_day"`
	Title        string    `json:"title"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Memo         string    `json:"memo,omitempty"`
	URL          string    `json:"url,omitempty"`
	Notification string    `json:"notification"`
	Repeat       string    `json:"repeat"`
	CheckBox     bool      `json:"check_box"`
	CreatedAt    time.Time `json:"created_at"`
}

// EntryPatch carries the mutable fields of an update. Nil pointers leave
// the stored value unchanged.
type EntryPatch struct {
	StartDay     string
	EndDay       string
	Title        string
	StartTime    string
	EndTime      string
	Memo         *string
	URL          *string
	Notification string
	Repeat       string
	CheckBox     *bool
}

// DateRange is an inclusive range of canonical dates.
type DateRange struct {
	From string
	To   string
}

// Actions the assistant may request. Anything else is rejected.
const (
	ActionCreate    = "생성"
	ActionRead      = "조회"
	ActionUpdate    = "수정"
	ActionDelete    = "삭제"
	ActionMonthRead = "월간 조회"
)

// NoneValue is the sentinel both enumerations coerce to.
const NoneValue = "안 함"

var validNotifications = []string{
	NoneValue, "5분 전", "10분 전", "15분 전", "30분 전",
	"1시간 전", "2시간 전", "1일 전", "2일 전",
}

var validRepeats = []string{NoneValue, "월", "화", "수", "목", "금", "토", "일"}

// Lead pairs a notification value with how long before the entry's start
// its reminder fires.
type Lead struct {
	Value    string
	Duration time.Duration
}

var notificationLeads = []Lead{
	{"5분 전", 5 * time.Minute},
	{"10분 전", 10 * time.Minute},
	{"15분 전", 15 * time.Minute},
	{"30분 전", 30 * time.Minute},
	{"1시간 전", time.Hour},
	{"2시간 전", 2 * time.Hour},
	{"1일 전", 24 * time.Hour},
	{"2일 전", 48 * time.Hour},
}

// NotificationLeads lists every lead-bearing notification value, shortest
// first. NoneValue is not in the list.
func NotificationLeads() []Lead {
	out := make([]Lead, len(notificationLeads))
	copy(out, notificationLeads)
	return out
}

// NotificationLead returns the lead duration for a notification value,
// or false for NoneValue and anything outside the enumeration.
func NotificationLead(v string) (time.Duration, bool) {
	for _, l := range notificationLeads {
		if l.Value == v {
			return l.Duration, true
		}
	}
	return 0, false
}

// CoerceNotification maps anything outside the notification set to NoneValue.
func CoerceNotification(v string) string {
	for _, n := range validNotifications {
		if v == n {
			return v
		}
	}
	return NoneValue
}

// CoerceRepeat maps anything outside the repeat set to NoneValue.
func CoerceRepeat(v string) string {
	for _, r := range validRepeats {
		if v == r {
			return v
		}
	}
	return NoneValue
}

// Command is the normalized structured action derived from model output.
// It exists for the duration of one request and is never persisted.
type Command struct {
	Action       string `json:"action"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Title        string `json:"title,omitempty"`
	ID           string `json:"id,omitempty"`
	Memo         string `json:"memo,omitempty"`
	URL          string `json:"url,omitempty"`
	Notification string `json:"notification"`
	Repeat       string `json:"repeat"`
	CheckBox     bool   `json:"check_box"`

	// UserEmail is always the verified identity of the caller, never a
	// value produced by the model.
	UserEmail string `json:"userEmail"`

	// IsCalendarCommand is true for the four CRUD actions; month read is
	// a browsing variant of read and does not set it.
	IsCalendarCommand bool `json:"isCalendarCommand"`
}
