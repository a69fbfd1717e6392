// Package collabfake serves an in-process stand-in for the equipment statistics service.
package collabfake

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/chemflow/equipctl/schema"
	"github.com/gorilla/mux"
)

// Default credentials accepted by the fake.
const (
	Token    = "test-token"
	Username = "operator"
	Password = "secret"
)

// FakePDF is the document body returned by /download/.
var FakePDF = []byte("%PDF-1.4\n% equipctl fake report\n%%EOF\n")

// SampleSnapshot is what /upload/ answers when nothing else is configured.
func SampleSnapshot() schema.StatsSnapshot {
	return schema.StatsSnapshot{
		TotalCount: 42,
		Averages:   map[string]float64{"pressure": 24.5, "temperature": 88.1},
		Distribution: schema.Distribution{
			Labels: []string{"Reactors", "Tanks"},
			Values: []int{30, 12},
		},
		CreatedAt: "2024-05-01T10:00:00Z",
	}
}

// Upload captures the last multipart upload.
type Upload struct {
	Filename    string
	ContentType string
	Content     string
}

// Server is the fake collaborator.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	profile   schema.UserProfile
	stats     schema.StatsSnapshot
	records   []json.RawMessage
	statuses  map[string]int
	raw       map[string][]byte
	delay     time.Duration
	counts    map[string]int
	auth      map[string]string
	requests  map[string]string
	upload    Upload
	export    schema.ExportRequest
	signups   []schema.SignupRequest
	loggedOut bool
}

// New starts a fake collaborator. Callers must Close it.
func New() *Server {
	s := &Server{
		profile: schema.UserProfile{
			Username:  Username,
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Role:      "Engineer",
			Company:   "ChemFlow",
		},
		stats:    SampleSnapshot(),
		statuses: make(map[string]int),
		raw:      make(map[string][]byte),
		counts:   make(map[string]int),
		auth:     make(map[string]string),
		requests: make(map[string]string),
	}

	router := mux.NewRouter()
	router.Use(s.track)
	router.HandleFunc("/upload/", s.requireToken(s.handleUpload)).Methods("POST")
	router.HandleFunc("/record/", s.requireToken(s.handleRecords)).Methods("GET")
	router.HandleFunc("/download/", s.requireToken(s.handleDownload)).Methods("POST")
	router.HandleFunc("/login/", s.handleLogin).Methods("POST")
	router.HandleFunc("/signup/", s.handleSignup).Methods("POST")
	router.HandleFunc("/logout/", s.requireToken(s.handleLogout)).Methods("POST")

	s.Server = httptest.NewServer(router)
	return s
}

// SetStats changes the snapshot returned by the next uploads.
func (s *Server) SetStats(stats schema.StatsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// SetRecords replaces the history list. Entries are marshalled as given.
func (s *Server) SetRecords(entries ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
	for _, e := range entries {
		data, _ := json.Marshal(e)
		s.records = append(s.records, data)
	}
}

// SetStatus forces path to answer with status and an error body.
// A status of 0 restores normal behaviour.
func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.statuses, path)
		return
	}
	s.statuses[path] = status
}

// SetRawResponse makes path answer 200 with body verbatim.
func (s *Server) SetRawResponse(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if body == nil {
		delete(s.raw, path)
		return
	}
	s.raw[path] = body
}

// SetDelay holds every response for d, or until the client gives up.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Count returns how many requests reached path.
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[path]
}

// Authorization returns the last Authorization header seen on path.
func (s *Server) Authorization(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth[path]
}

// RequestID returns the last X-Request-ID header seen on path.
func (s *Server) RequestID(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// LastUpload returns the last accepted multipart upload.
func (s *Server) LastUpload() Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upload
}

// LastExport returns the last accepted export request.
func (s *Server) LastExport() schema.ExportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.export
}

// Signups returns every accepted signup.
func (s *Server) Signups() []schema.SignupRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.SignupRequest(nil), s.signups...)
}

// LoggedOut reports whether the token was invalidated.
func (s *Server) LoggedOut() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedOut
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.counts[r.URL.Path]++
		s.auth[r.URL.Path] = r.Header.Get("Authorization")
		s.requests[r.URL.Path] = r.Header.Get("X-Request-ID")
		delay := s.delay
		status := s.statuses[r.URL.Path]
		raw := s.raw[r.URL.Path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		if raw != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(raw)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		loggedOut := s.loggedOut
		s.mu.Unlock()
		header := r.Header.Get("Authorization")
		_, token, ok := strings.Cut(header, " ")
		if !ok || token != Token || loggedOut {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer file.Close() //nolint:errcheck
	content, _ := io.ReadAll(file)

	s.mu.Lock()
	s.upload = Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     string(content),
	}
	stats := s.stats
	record, _ := json.Marshal(stats)
	s.records = append(s.records, record)
	if len(s.records) > 5 {
		s.records = s.records[len(s.records)-5:]
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, struct {
		schema.StatsSnapshot
		Message string `json:"message"`
	}{stats, "Analysis Complete"})
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	records := append([]json.RawMessage{}, s.records...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"resultData": records})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req schema.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChartImage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid export request"})
		return
	}
	s.mu.Lock()
	s.export = req
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	_, _ = w.Write(FakePDF)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req schema.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	if req.Username != Username || req.Password != Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid Credentials"})
		return
	}
	s.mu.Lock()
	s.loggedOut = false
	profile := s.profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, schema.LoginResponse{Token: Token, User: profile})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req schema.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}
	s.mu.Lock()
	s.signups = append(s.signups, req)
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.loggedOut = true
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
