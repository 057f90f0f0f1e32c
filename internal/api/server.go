// Package api exposes the planner over HTTP: direct CRUD for the mobile
// client's calendar screens, the conversational endpoint for the
// assistant, and the websocket live-update channel.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ChanHyuk-YOO/Plannie/internal/auth"
	"github.com/ChanHyuk-YOO/Plannie/internal/chat"
	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
	"github.com/ChanHyuk-YOO/Plannie/internal/realtime"
	"github.com/ChanHyuk-YOO/Plannie/internal/store"
)

// Server handles HTTP requests for the planner API.
type Server struct {
	store    *store.Store
	pipeline *chat.Pipeline
	verifier *auth.Verifier
	hub      *realtime.Hub
	addr     string
}

// New creates a new API server.
func New(s *store.Store, pipeline *chat.Pipeline, verifier *auth.Verifier, hub *realtime.Hub, addr string) *Server {
	return &Server{store: s, pipeline: pipeline, verifier: verifier, hub: hub, addr: addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat/send-message", s.sendMessage)

	mux.HandleFunc("POST /planner", s.createEntry)
	mux.HandleFunc("GET /planner/date", s.entriesByDate)
	mux.HandleFunc("GET /planner/monthly", s.entriesByMonth)
	mux.HandleFunc("PUT /planner/{id}", s.updateEntry)
	mux.HandleFunc("DELETE /planner/{id}", s.deleteEntry)

	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("GET /health", s.health)

	return withCORS(mux)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	fmt.Printf("Starting server on %s\n", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// withCORS adds CORS headers for the mobile client during development.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// owner authenticates the request and returns the verified email, writing
// the error response itself when the token is bad.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := s.verifier.VerifyHeader(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return "", false
	}
	return email, true
}

// SendMessageRequest is the conversational endpoint's input.
type SendMessageRequest struct {
	SenderID string `json:"senderId"`
	Message  string `json:"message"`
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" || req.SenderID == "" {
		writeError(w, http.StatusBadRequest, "message and senderId are required")
		return
	}

	outcome, err := s.pipeline.Handle(email, req.Message)
	if err != nil {
		s.writeChatError(w, err)
		return
	}

	// Live updates are fire-and-forget; a dead socket never fails the
	// request that produced the event.
	for _, ev := range outcome.Result.Events {
		s.hub.Publish(ev.Topic, ev.Payload)
	}

	writeJSON(w, http.StatusOK, outcome)
}

// writeChatError maps the pipeline's error taxonomy onto HTTP statuses.
// Client-fault errors echo enough detail to debug the model output;
// server-fault errors log the detail and answer with a generic message.
func (s *Server) writeChatError(w http.ResponseWriter, err error) {
	var (
		valErr   *chat.ValidationError
		ambErr   *chat.AmbiguousDeleteError
		nfErr    *chat.NotFoundError
		extErr   *chat.ExtractionError
		storErr  *chat.StorageError
		modelErr *chat.ModelUnavailableError
	)

	switch {
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":       err.Error(),
			"commandData": valErr.Payload,
		})
	case errors.As(err, &ambErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   err.Error(),
			"details": "삭제할 일정을 찾을 수 없습니다. 제목과 날짜를 다시 확인해 주세요.",
		})
	case errors.As(err, &nfErr):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &extErr):
		log.Printf("chat extraction failed: %v", err)
		writeError(w, http.StatusInternalServerError, "assistant reply could not be processed")
	case errors.As(err, &storErr), errors.As(err, &modelErr):
		log.Printf("chat collaborator failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
	default:
		log.Printf("chat request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

// CreateEntryRequest is the direct-CRUD creation body. Field names match
// what the mobile client sends.
type CreateEntryRequest struct {
	StartDay     string `json:"start_day"`
	EndDay       string `json:"end_day"`
	Title        string `json:"title"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Memo         string `json:"memo"`
	URL          string `json:"url"`
	Notification string `json:"notification"`
	Repeat       string `json:"repeat"`
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.StartDay == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "title, start_day, start_time and end_time are required")
		return
	}
	if !validDay(req.StartDay) || (req.EndDay != "" && !validDay(req.EndDay)) {
		writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		return
	}

	entry, err := s.store.Insert(&domain.PlannerEntry{
		OwnerEmail:   email,
		StartDay:     req.StartDay,
		EndDay:       req.EndDay,
		Title:        req.Title,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Memo:         req.Memo,
		URL:          req.URL,
		Notification: req.Notification,
		Repeat:       req.Repeat,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish(chat.TopicPlanner, map[string]any{"action": domain.ActionCreate, "entry": entry})
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) entriesByDate(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if !validDay(date) {
		writeError(w, http.StatusBadRequest, "query parameter 'date' must be YYYY-MM-DD")
		return
	}

	entries, err := s.store.FindByOwnerAndDate(email, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.PlannerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) entriesByMonth(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}

	year := r.URL.Query().Get("year")
	month := r.URL.Query().Get("month")
	first, err := time.Parse("2006-01", year+"-"+month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameters 'year' and 'month' are required (YYYY and MM)")
		return
	}
	last := first.AddDate(0, 1, -1)

	entries, err := s.store.FindByOwnerAndRange(email, domain.DateRange{
		From: first.Format("2006-01-02"),
		To:   last.Format("2006-01-02"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.PlannerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// UpdateEntryRequest carries a partial update; absent fields keep their
// stored values. The checkbox toggle from the calendar screen is the most
// common caller and sends only check_box.
type UpdateEntryRequest struct {
	StartDay     string  `json:"start_day"`
	EndDay       string  `json:"end_day"`
	Title        string  `json:"title"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Memo         *string `json:"memo"`
	URL          *string `json:"url"`
	Notification string  `json:"notification"`
	Repeat       string  `json:"repeat"`
	CheckBox     *bool   `json:"check_box"`
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartDay != "" && !validDay(req.StartDay) {
		writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
		return
	}

	entry, err := s.store.FindOne(r.PathValue("id"), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.store.Update(entry, domain.EntryPatch{
		StartDay:     req.StartDay,
		EndDay:       req.EndDay,
		Title:        req.Title,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Memo:         req.Memo,
		URL:          req.URL,
		Notification: req.Notification,
		Repeat:       req.Repeat,
		CheckBox:     req.CheckBox,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish(chat.TopicPlanner, map[string]any{"action": domain.ActionUpdate, "entry": updated})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	email, ok := s.owner(w, r)
	if !ok {
		return
	}

	entry, err := s.store.FindOne(r.PathValue("id"), email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.store.Destroy(entry); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Publish(chat.TopicPlanner, map[string]any{"action": domain.ActionDelete, "entry": entry})
	writeJSON(w, http.StatusOK, entry)
}

func validDay(day string) bool {
	_, err := time.Parse("2006-01-02", day)
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
