// Package reminder turns the stored notification lead times into events.
// A minutely cron job looks ahead by each lead duration and publishes a
// reminder for every entry that starts exactly then.
package reminder

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

const topicReminder = "reminder"

// Lister is the slice of the store the sweeper needs.
type Lister interface {
	FindStartingAt(date, startTime string) ([]domain.PlannerEntry, error)
}

// Publisher is the broadcast sink reminders go out on.
type Publisher interface {
	Publish(topic string, payload any)
}

// Sweeper runs the minutely reminder check.
type Sweeper struct {
	store Lister
	sink  Publisher
	loc   *time.Location
	cron  *cron.Cron
	now   func() time.Time
}

func New(store Lister, sink Publisher, loc *time.Location) *Sweeper {
	return &Sweeper{
		store: store,
		sink:  sink,
		loc:   loc,
		cron:  cron.New(cron.WithLocation(loc)),
		now:   time.Now,
	}
}

// Start schedules the sweep and starts the cron loop.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", s.Sweep); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep publishes one reminder for every entry whose notification lead
// lands on the current minute. Store failures are logged and skipped so
// one bad lookup does not starve the others.
func (s *Sweeper) Sweep() {
	now := s.now().In(s.loc).Truncate(time.Minute)

	for _, lead := range domain.NotificationLeads() {
		target := now.Add(lead.Duration)
		entries, err := s.store.FindStartingAt(
			target.Format("2006-01-02"), target.Format("15:04"),
		)
		if err != nil {
			log.Printf("reminder sweep %s: %v", lead.Value, err)
			continue
		}
		for _, e := range entries {
			if e.Notification != lead.Value {
				continue
			}
			s.sink.Publish(topicReminder, map[string]any{
				"userEmail":    e.OwnerEmail,
				"entry":        e,
				"notification": e.Notification,
			})
		}
	}
}
