package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/synergysphere/sphere/internal/models"
	"github.com/synergysphere/sphere/internal/store"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server provides the HTTP API.
type Server struct {
	service *Service
	addr    string
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		service: service,
		addr:    addr,
		logger:  logger,
	}
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/users/register", s.handleRegister)
	mux.HandleFunc("/api/users/login", s.handleLogin)

	mux.HandleFunc("/api/projects", s.requireAuth(s.handleCollection(models.KindProject)))
	mux.HandleFunc("/api/projects/", s.requireAuth(s.handleByID(models.KindProject)))
	mux.HandleFunc("/api/tasks", s.requireAuth(s.handleCollection(models.KindTask)))
	mux.HandleFunc("/api/tasks/", s.requireAuth(s.handleByID(models.KindTask)))

	mux.HandleFunc("/api/audit", s.requireAuth(s.handleAudit))
	mux.HandleFunc("/health", s.handleHealth)

	return s.withLogging(withCORS(mux))
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("starting server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// --- Users ---

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.service.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"status":  "success",
		"message": "User registered",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, user, err := s.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:       token,
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
	})
}

// --- Projects and tasks ---

type userKey struct{}

// requireAuth resolves the bearer token and stores the user in the request
// context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		user, err := s.service.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, *user)))
	}
}

func currentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(userKey{}).(models.User)
	return u
}

// handleCollection handles GET and POST on /api/{plural}.
func (s *Server) handleCollection(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			items, err := s.service.List(r.Context(), kind, currentUser(r))
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, items)
		case http.MethodPost:
			var body models.Resource
			if !decodeBody(w, r, &body) {
				return
			}
			created, err := s.service.Create(r.Context(), kind, currentUser(r), body)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleByID handles GET and PUT on /api/{plural}/{id}, and POST on
// /api/projects/{id}/members.
func (s *Server) handleByID(kind models.Kind) http.HandlerFunc {
	prefix := "/api/" + kind.Plural() + "/"
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if pid, ok := strings.CutSuffix(id, "/members"); ok && kind == models.KindProject && pid != "" && !strings.Contains(pid, "/") {
			s.handleAddMember(w, r, models.ID(pid))
			return
		}
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			res, err := s.service.Get(r.Context(), kind, currentUser(r), models.ID(id))
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, res)
		case http.MethodPut:
			var body models.Resource
			if !decodeBody(w, r, &body) {
				return
			}
			if !body.ID.IsZero() && body.ID.String() != id {
				writeError(w, http.StatusBadRequest, "Body id does not match path")
				return
			}
			updated, err := s.service.Update(r.Context(), kind, currentUser(r), models.ID(id), body)
			if err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

type addMemberRequest struct {
	UserID models.ID `json:"user_id"`
}

// handleAddMember takes the user id from the user_id query parameter or a
// JSON body.
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request, projectID models.ID) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	userID := models.ID(r.URL.Query().Get("user_id"))
	if userID.IsZero() && r.ContentLength != 0 {
		var req addMemberRequest
		if !decodeBody(w, r, &req) {
			return
		}
		userID = req.UserID
	}
	if userID.IsZero() {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	m, err := s.service.AddMember(r.Context(), currentUser(r), projectID, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// --- Audit ---

// maxAuditLimit caps GET /api/audit?limit=.
const maxAuditLimit = 500

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}
	entries, err := s.service.Activity(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Health ---

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Status  string `json:"status"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := HealthResponse{
		OK:      true,
		Status:  "ok",
		DB:      "ok",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.service.Ping(ctx); err != nil {
		resp.OK = false
		resp.Status = "degraded"
		resp.DB = "error: " + err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// --- Helpers ---

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Token is expired or invalid")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "Only the project owner can update it")
	case errors.Is(err, ErrNotMember):
		writeError(w, http.StatusForbidden, "Not authorized to access this project")
	case errors.Is(err, ErrNotOwner):
		writeError(w, http.StatusForbidden, "Only the project owner can add members")
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User to add not found")
	case errors.Is(err, store.ErrAlreadyMember):
		writeError(w, http.StatusConflict, "User is already a member of this project")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", r.Header.Get(requestIDHeader), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// withLogging logs each request and echoes or assigns its request id.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			r.Header.Set(requestIDHeader, reqID)
		}
		w.Header().Set(requestIDHeader, reqID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", reqID,
			"duration", time.Since(start),
		)
	})
}

// withCORS allows browser clients served from another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+requestIDHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
