// Package esptest provides a fake ESP API for tests. It verifies APIAuth
// request signatures and serves users as JSON:API documents.
package esptest

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const (
	DefaultAccessKeyID     = "test-access-key"
	DefaultSecretAccessKey = "test-secret-key"

	contentType = "application/vnd.api+json"
)

// User describes a user served by the fake API
type User struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	MFAEnabled       bool
	UpdatedAt        time.Time
	Role             string
	Organization     string
	SubOrganizations []string
	Teams            []string
}

// Server is a fake ESP API backed by httptest
type Server struct {
	*httptest.Server

	AccessKeyID     string
	SecretAccessKey string

	mu          sync.RWMutex
	users       []User
	failStatus  int
	failDetail  string
	requests    int
	lastInclude string
}

// NewServer starts a fake ESP API accepting the default credentials
func NewServer() *Server {
	s := &Server{
		AccessKeyID:     DefaultAccessKeyID,
		SecretAccessKey: DefaultSecretAccessKey,
	}

	r := mux.NewRouter()
	r.Use(s.countMiddleware)
	r.Use(s.apiAuthMiddleware)
	r.HandleFunc("/api/v2/users", s.listUsers).Methods("GET")

	s.Server = httptest.NewServer(r)
	return s
}

// SetUsers replaces the users served by the fake API
func (s *Server) SetUsers(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

// FailWith makes every authenticated request answer with status and a JSON:API error
func (s *Server) FailWith(status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failDetail = detail
}

// Requests returns how many requests reached the server
func (s *Server) Requests() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests
}

// LastInclude returns the include parameter of the last users request
func (s *Server) LastInclude() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastInclude
}

func (s *Server) countMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// apiAuthMiddleware checks the APIAuth HMAC-SHA1 signature
func (s *Server) apiAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.validSignature(r) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "You are not authorized to perform that action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validSignature(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	credentials, ok := strings.CutPrefix(auth, "APIAuth ")
	if !ok {
		return false
	}
	keyID, signature, ok := strings.Cut(credentials, ":")
	if !ok || keyID != s.AccessKeyID {
		return false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	sum := md5.Sum(body)
	if r.Header.Get("Content-MD5") != base64.StdEncoding.EncodeToString(sum[:]) {
		return false
	}

	date, err := http.ParseTime(r.Header.Get("Date"))
	if err != nil || time.Since(date).Abs() > 15*time.Minute {
		return false
	}

	canonical := strings.Join([]string{
		r.Header.Get("Content-Type"),
		r.Header.Get("Content-MD5"),
		r.URL.RequestURI(),
		r.Header.Get("Date"),
	}, ",")
	mac := hmac.New(sha1.New, []byte(s.SecretAccessKey))
	mac.Write([]byte(canonical))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastInclude = r.URL.Query().Get("include")
	users := s.users
	failStatus, failDetail := s.failStatus, s.failDetail
	s.mu.Unlock()

	if failStatus != 0 {
		writeError(w, failStatus, http.StatusText(failStatus), failDetail)
		return
	}

	included := newIncludedSet()
	data := make([]map[string]any, 0, len(users))
	for _, u := range users {
		relationships := map[string]any{
			"role":              map[string]any{"data": included.one("roles", u.Role)},
			"organization":      map[string]any{"data": included.one("organizations", u.Organization)},
			"sub_organizations": map[string]any{"data": included.many("sub_organizations", u.SubOrganizations)},
			"teams":             map[string]any{"data": included.many("teams", u.Teams)},
		}
		data = append(data, map[string]any{
			"id":   u.ID,
			"type": "users",
			"attributes": map[string]any{
				"first_name":  u.FirstName,
				"last_name":   u.LastName,
				"email":       u.Email,
				"mfa_enabled": u.MFAEnabled,
				"updated_at":  u.UpdatedAt.Format(time.RFC3339Nano),
				"created_at":  u.UpdatedAt.Format(time.RFC3339Nano),
			},
			"relationships": relationships,
		})
	}

	writeDocument(w, http.StatusOK, map[string]any{
		"data":     data,
		"included": included.resources,
	})
}

// includedSet assigns stable ids to named resources and collects them once
type includedSet struct {
	ids       map[string]string
	resources []map[string]any
}

func newIncludedSet() *includedSet {
	return &includedSet{ids: make(map[string]string)}
}

func (s *includedSet) one(typ, name string) any {
	if name == "" {
		return nil
	}
	return s.ref(typ, name)
}

func (s *includedSet) many(typ string, names []string) []any {
	refs := make([]any, 0, len(names))
	for _, name := range names {
		refs = append(refs, s.ref(typ, name))
	}
	return refs
}

func (s *includedSet) ref(typ, name string) map[string]any {
	key := typ + "/" + name
	id, ok := s.ids[key]
	if !ok {
		id = strconv.Itoa(len(s.ids) + 1)
		s.ids[key] = id
		s.resources = append(s.resources, map[string]any{
			"id":         id,
			"type":       typ,
			"attributes": map[string]any{"name": name},
		})
	}
	return map[string]any{"id": id, "type": typ}
}

func writeError(w http.ResponseWriter, status int, title, detail string) {
	writeDocument(w, status, map[string]any{
		"errors": []map[string]any{{
			"status": strconv.Itoa(status),
			"title":  title,
			"detail": detail,
		}},
	})
}

func writeDocument(w http.ResponseWriter, status int, doc any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}
