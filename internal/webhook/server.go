// Package webhook implements the demo receiver for change notifications: it
// verifies signatures and keeps the accepted payloads in memory for
// inspection.
package webhook

import (
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/specwatch/specwatch/internal/notifier"
)

// timestampTolerance bounds how old a signed delivery may be.
const timestampTolerance = 5 * time.Minute

// Notification is one accepted webhook delivery.
type Notification struct {
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Server receives and records webhook notifications. The notification list
// is owned by the server value; there is no process-wide state.
type Server struct {
	logger *logrus.Logger
	secret string
	router chi.Router
	now    func() time.Time

	mu            sync.Mutex
	notifications []Notification
}

// NewServer creates a new Server instance. An empty secret disables
// signature verification.
func NewServer(logger *logrus.Logger, secret string) *Server {
	s := &Server{
		logger: logger,
		secret: secret,
		now:    time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/webhook", s.handleWebhook)
	r.Get("/notifications", s.handleList)
	r.Get("/healthz", s.handleHealth)
	s.router = r

	return s
}

// Handler exposes the server's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the receiver on the given address until it fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Infof("Starting webhook server at http://%s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Notifications returns a copy of the accepted deliveries.
func (s *Server) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return
	}

	if err := s.verifySignature(r, body); err != nil {
		s.logger.Warnf("Rejected webhook delivery: %v", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}

	s.mu.Lock()
	s.notifications = append(s.notifications, Notification{
		ReceivedAt: s.now(),
		Payload:    json.RawMessage(body),
	})
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"event_type": payload["event_type"],
		"source":     payload["source"],
		"summary":    payload["summary"],
	}).Info("API specification change notification received")

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Webhook notification received",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"notifications": s.Notifications()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// verifySignature checks the timestamp freshness and the HMAC signature over
// the exact received bytes, using a constant-time comparison.
func (s *Server) verifySignature(r *http.Request, body []byte) error {
	if s.secret == "" {
		return nil
	}

	timestamp := r.Header.Get("X-Webhook-Timestamp")
	signature := r.Header.Get("X-Webhook-Signature")
	if timestamp == "" || signature == "" {
		return fmt.Errorf("missing webhook signature headers")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid webhook timestamp")
	}
	age := s.now().Sub(time.Unix(ts, 0))
	if age < -timestampTolerance || age > timestampTolerance {
		return fmt.Errorf("webhook timestamp expired")
	}

	expected := notifier.Sign(s.secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("invalid webhook signature")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
