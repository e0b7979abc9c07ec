package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// ChatServer is a fake support service covering the REST endpoints and
// the duplex channel the widget talks to. Handlers record every request
// so tests can assert ordering and payloads.
type ChatServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	// Failure switches for exercising degraded paths.
	FailConfig  bool
	FailStart   bool
	FailHistory bool
	FailUpload  bool

	mu              sync.Mutex
	requestOrder    []string
	startRequests   []map[string]interface{}
	messageRequests []map[string]interface{}
	statusRequests  []map[string]interface{}
	uploadRequests  []map[string]string
	history         map[string][]map[string]interface{}
	conns           []*websocket.Conn
	connCount       int
	received        []map[string]interface{}
}

// NewChatServer starts a fake support service.
func NewChatServer(t *testing.T) *ChatServer {
	t.Helper()
	s := &ChatServer{
		t:       t,
		history: make(map[string][]map[string]interface{}),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// URL returns the server's HTTP base URL.
func (s *ChatServer) URL() string {
	return s.srv.URL
}

// Close shuts the server and any live websocket connections down.
func (s *ChatServer) Close() {
	s.CloseConnections()
	s.srv.Close()
}

func (s *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/chat/api/widget/config/":
		s.record("config")
		if s.FailConfig {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":            "Test Support",
			"welcome_message": "Welcome to test support!",
			"primary_color":   "#007bff",
			"widget_position": "bottom-right",
		})

	case path == "/chat/api/chat/start/":
		s.record("start")
		body := decodeJSON(s.t, r)
		s.mu.Lock()
		s.startRequests = append(s.startRequests, body)
		s.mu.Unlock()
		if s.FailStart {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"chat_session": map[string]interface{}{
				"id":          "session-1",
				"customer_id": body["customer_id"],
				"status":      "open",
			},
			"customer_id": body["customer_id"],
			"created":     true,
		})

	case strings.HasPrefix(path, "/chat/api/chat/") && strings.HasSuffix(path, "/history/"):
		s.record("history")
		if s.FailHistory {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "boom"})
			return
		}
		customerID := strings.TrimSuffix(strings.TrimPrefix(path, "/chat/api/chat/"), "/history/")
		s.mu.Lock()
		msgs := s.history[customerID]
		s.mu.Unlock()
		if msgs == nil {
			msgs = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, msgs)

	case path == "/chat/api/chat/message/":
		s.record("message")
		body := decodeJSON(s.t, r)
		s.mu.Lock()
		s.messageRequests = append(s.messageRequests, body)
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]interface{}{"content": body["message"]})

	case path == "/chat/api/chat/upload/":
		s.record("upload")
		if s.FailUpload {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "upload rejected"})
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
			return
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "missing file"})
			return
		}
		s.mu.Lock()
		s.uploadRequests = append(s.uploadRequests, map[string]string{
			"file":        header.Filename,
			"customer_id": r.FormValue("customer_id"),
			"sender_name": r.FormValue("sender_name"),
		})
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"attachment_path": "chat_attachments/" + header.Filename,
			"attachment_url":  "/media/chat_attachments/" + header.Filename,
		})

	case strings.HasPrefix(path, "/chat/api/admin/session/") && strings.HasSuffix(path, "/status/"):
		s.record("status")
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body := decodeJSON(s.t, r)
		body["session_id"] = strings.TrimSuffix(strings.TrimPrefix(path, "/chat/api/admin/session/"), "/status/")
		s.mu.Lock()
		s.statusRequests = append(s.statusRequests, body)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, body)

	case strings.HasPrefix(path, "/ws/chat/"):
		s.handleWS(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *ChatServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.connCount++
	s.mu.Unlock()

	for {
		var frame map[string]interface{}
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		s.mu.Lock()
		s.received = append(s.received, frame)
		s.mu.Unlock()
	}
}

// Push broadcasts a frame to all live websocket clients.
func (s *ChatServer) Push(frame map[string]interface{}) {
	s.mu.Lock()
	conns := append([]*websocket.Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, conn := range conns {
		_ = conn.WriteJSON(frame)
	}
}

// CloseConnections drops every live websocket connection, simulating a
// server-side disconnect.
func (s *ChatServer) CloseConnections() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

// SetHistory seeds the history returned for a customer id.
func (s *ChatServer) SetHistory(customerID string, messages []map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[customerID] = messages
}

// ConnCount returns how many websocket connections were accepted.
func (s *ChatServer) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connCount
}

// Received returns the frames read from websocket clients.
func (s *ChatServer) Received() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.received...)
}

// RequestOrder returns the ordered endpoint names hit so far.
func (s *ChatServer) RequestOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestOrder...)
}

// StartRequests returns the recorded session-start payloads.
func (s *ChatServer) StartRequests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.startRequests...)
}

// MessageRequests returns the recorded HTTP fallback send payloads.
func (s *ChatServer) MessageRequests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.messageRequests...)
}

// StatusRequests returns the recorded status update payloads.
func (s *ChatServer) StatusRequests() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.statusRequests...)
}

// UploadRequests returns the recorded upload form fields.
func (s *ChatServer) UploadRequests() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.uploadRequests...)
}

func (s *ChatServer) record(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestOrder = append(s.requestOrder, endpoint)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode request body: %v", err)
	}
	return body
}
