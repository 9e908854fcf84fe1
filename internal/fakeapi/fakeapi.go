// Package fakeapi is an in-memory implementation of the Computer Shop REST
// API. Tests start it behind httptest to drive the console against a server
// that behaves like the real one: bcrypt-hashed passwords, HS256 tokens
// carrying username and exp, and {"message": ...} error bodies.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/shopconsole/internal/models"
)

// Secret signs every token the fake server issues.
var Secret = []byte("fakeapi-secret")

var validate = validator.New()

type record struct {
	user         models.User
	passwordHash []byte
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

// Server holds the user store. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	users    []*record
	nextID   int64
	tokenTTL time.Duration
	failures map[string]int
	requests []*http.Request
}

// New returns a server with no users and one-hour tokens.
func New() *Server {
	return &Server{
		nextID:   1,
		tokenTTL: time.Hour,
		failures: map[string]int{},
	}
}

// Handler returns the chi router serving the API.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(s.recordRequest, s.injectFailures)

	router.Post("/auth/login", s.postLogin)
	router.Post("/auth/register", s.postRegister)

	router.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/user", s.getUsers)
		r.Post("/user", s.postUser)
		r.Put("/user/{id}", s.putUser)
		r.Delete("/user/{id}", s.deleteUser)
	})

	return router
}

// Seed adds a user directly to the store and returns it.
func (s *Server) Seed(fullname, username, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(fullname, username, password)
}

// IssueToken signs a token for username that expires after ttl. A negative
// ttl yields an already expired token.
func (s *Server) IssueToken(username string, ttl time.Duration) string {
	return IssueToken(username, 0, ttl)
}

// IssueToken signs a token the same way the fake server does on login.
func IssueToken(username string, userID int64, ttl time.Duration) string {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: username,
		UserID:   userID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret)
	if err != nil {
		panic(err)
	}

	return token
}

// FailNext makes the next request to "METHOD /path" answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[method+" "+path] = status
}

// Users returns a copy of the stored users in insertion order.
func (s *Server) Users() models.Users {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(models.Users, 0, len(s.users))
	for _, rec := range s.users {
		result = append(result, rec.user)
	}

	return result
}

// PasswordMatches reports whether password is the stored password of username.
func (s *Server) PasswordMatches(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findByUsername(username)
	if rec == nil {
		return false
	}

	return bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)) == nil
}

// Requests returns every request received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*http.Request(nil), s.requests...)
}

func (s *Server) recordRequest(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		s.mu.Unlock()

		h.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		status, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if ok {
			writeMessage(w, status, "injected failure")
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if tokenString == "" {
			writeMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
			return Secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.mu.Lock()
	rec := s.findByUsername(req.Username)
	s.mu.Unlock()

	if rec == nil || bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(req.Password)) != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token: IssueToken(rec.user.Username, rec.user.ID, s.tokenTTL),
	})
}

func (s *Server) postRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByUsername(req.Username) != nil {
		writeMessage(w, http.StatusBadRequest, "Username already exists")
		return
	}
	s.insert(req.Fullname, req.Username, req.Password)

	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: "User registered successfully"})
}

func (s *Server) getUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Users())
}

func (s *Server) postUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByUsername(req.Username) != nil {
		writeMessage(w, http.StatusBadRequest, "Username already exists")
		return
	}
	created := s.insert(req.Fullname, req.Username, req.Password)

	writeJSON(w, http.StatusCreated, models.CreateUserResponse{
		Message: "User created successfully",
		NewUser: created,
	})
}

func (s *Server) putUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req models.UpdateUserRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findByID(id)
	if rec == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if other := s.findByUsername(req.Username); other != nil && other != rec {
		writeMessage(w, http.StatusBadRequest, "Username already exists")
		return
	}

	rec.user.Fullname = req.Fullname
	rec.user.Username = req.Username
	if req.Password != "" {
		rec.passwordHash = mustHash(req.Password)
	}

	writeJSON(w, http.StatusOK, models.UpdateUserResponse{
		Message:     "User updated successfully",
		UpdatedUser: rec.user,
	})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.users {
		if rec.user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			writeJSON(w, http.StatusOK, models.MessageResponse{Message: "User deleted successfully"})
			return
		}
	}

	writeMessage(w, http.StatusNotFound, "User not found")
}

func (s *Server) insert(fullname, username, password string) models.User {
	rec := &record{
		user: models.User{
			ID:       s.nextID,
			Username: username,
			Fullname: fullname,
		},
		passwordHash: mustHash(password),
	}
	s.nextID++
	s.users = append(s.users, rec)

	return rec.user
}

func (s *Server) findByUsername(username string) *record {
	for _, rec := range s.users {
		if rec.user.Username == username {
			return rec
		}
	}

	return nil
}

func (s *Server) findByID(id int64) *record {
	for _, rec := range s.users {
		if rec.user.ID == id {
			return rec
		}
	}

	return nil
}

func mustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	return hash
}

// decodeRequest reads the JSON body into dst and checks its validate tags,
// answering 400 itself when either fails.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "All fields are required")
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Message: message})
}
