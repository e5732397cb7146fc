package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/containeroo/tinyflags"
	"github.com/gi8lino/jiraactions/internal/jira"
	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// Config is the mock server configuration root.
type Config struct {
	Port        int              `yaml:"port"`
	RandomDelay bool             `yaml:"randomDelay"`
	AppID       string           `yaml:"appId"`
	TokenTTL    time.Duration    `yaml:"tokenTTL"`
	SigningKey  string           `yaml:"signingKey"`
	DenyURLs    []string         `yaml:"denyUrls,omitempty"`   // instances answering success:false
	FailIssues  map[string]int   `yaml:"failIssues,omitempty"` // issue key -> forced status for mutations
	Users       []User           `yaml:"users"`
	Issues      map[string]Issue `yaml:"issues"`
}

// User is a mock JIRA user.
type User struct {
	Name         string `yaml:"name"`
	DisplayName  string `yaml:"displayName"`
	EmailAddress string `yaml:"emailAddress"`
}

func (u User) jira() jira.User {
	return jira.User{Name: u.Name, Key: u.Name, DisplayName: u.DisplayName, EmailAddress: u.EmailAddress}
}

// Issue is a mock JIRA issue.
type Issue struct {
	Summary  string `yaml:"summary"`
	Status   string `yaml:"status"`
	Assignee string `yaml:"assignee,omitempty"` // user name
}

// store holds the mutable issue state.
type store struct {
	mu       sync.Mutex
	cfg      Config
	comments map[string][]jira.Comment
	dialogs  map[string]string // dialog id -> template
}

// main starts the mock integration backend and dialog host.
func main() {
	var (
		flagConfigPath string
		flagLogBody    bool
	)

	tf := tinyflags.NewFlagSet("mock-server", tinyflags.ExitOnError)
	tf.StringVar(&flagConfigPath, "config", "", "Path to mock-server config.yaml (required)").Value()
	tf.BoolVar(&flagLogBody, "log-body", false, "Log JSON request bodies (may contain secrets)")

	if err := tf.Parse(os.Args[1:]); err != nil {
		log.Fatal("flag parse error:", err)
	}

	if strings.TrimSpace(flagConfigPath) == "" {
		log.Fatal("missing required --config=<path to yaml>")
	}

	cfg, err := loadConfig(flagConfigPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	s := &store{
		cfg:      cfg,
		comments: map[string][]jira.Comment{},
		dialogs:  map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/application/{app}/authorization/token", s.authorize)
	mux.HandleFunc("GET /v1/jira/rest/api/user/assignable/search", s.searchUsers)
	mux.HandleFunc("GET /v1/jira/rest/api/issue/{key}", s.getIssue)
	mux.HandleFunc("PUT /v1/jira/rest/api/issue/{key}/assignee", s.assign)
	mux.HandleFunc("POST /v1/jira/rest/api/issue/{key}/comment", s.comment)
	mux.HandleFunc("POST /v1/dialogs", s.showDialog)
	mux.HandleFunc("DELETE /v1/dialogs/{id}", s.closeDialog)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.RandomDelay {
			applyRandomDelay(200, 1000)
		}
		logRequest(r, flagLogBody)
		mux.ServeHTTP(w, r)
	})

	addr := ":" + strconv.Itoa(cfg.Port)
	log.Printf("Mock server listening on %s (app: %s, issues: %d, users: %d)", addr, cfg.AppID, len(cfg.Issues), len(cfg.Users))
	log.Fatal(http.ListenAndServe(addr, handler))
}

// loadConfig reads and validates the YAML configuration file.
func loadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}

	// Basic defaults.
	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	if cfg.AppID == "" {
		cfg.AppID = "jira"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if cfg.SigningKey == "" {
		cfg.SigningKey = "mock-signing-key"
	}
	if cfg.Issues == nil {
		cfg.Issues = map[string]Issue{}
	}

	for key, iss := range cfg.Issues {
		if iss.Assignee != "" && findUser(cfg.Users, iss.Assignee) == nil {
			return Config{}, fmt.Errorf("issue %q: unknown assignee %q", key, iss.Assignee)
		}
	}

	return cfg, nil
}

// authorize mints a short-lived user token for the requested instance.
func (s *store) authorize(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("app") != s.cfg.AppID {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown application"})
		return
	}
	baseURL := r.URL.Query().Get("url")
	if baseURL == "" || slices.Contains(s.cfg.DenyURLs, baseURL) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   baseURL,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	})
	signed, err := token.SignedString([]byte(s.cfg.SigningKey))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "jwt": signed})
}

// searchUsers returns users whose name, email or display name contains username.
func (s *store) searchUsers(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(w, r) {
		return
	}
	q := r.URL.Query()
	if _, ok := s.lookupIssue(q.Get("issueKey")); !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"errorMessages": []string{"Issue Does Not Exist"}})
		return
	}

	needle := strings.ToLower(q.Get("username"))
	limit, err := strconv.Atoi(q.Get("maxResults"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	out := []jira.User{}
	for _, u := range s.cfg.Users {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.EmailAddress), needle) ||
			strings.Contains(strings.ToLower(u.DisplayName), needle) {
			out = append(out, u.jira())
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// getIssue serves the current issue snapshot.
func (s *store) getIssue(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(w, r) {
		return
	}
	key := r.PathValue("key")
	iss, ok := s.lookupIssue(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"errorMessages": []string{"Issue Does Not Exist"}})
		return
	}

	out := jira.Issue{
		Key: key,
		Fields: jira.Fields{
			Summary:  iss.Summary,
			Status:   jira.Status{Name: iss.Status},
			Assignee: findUser(s.cfg.Users, iss.Assignee),
		},
	}
	writeJSON(w, http.StatusOK, out)
}

// assign sets the issue assignee.
func (s *store) assign(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(w, r) || s.forced(w, r) {
		return
	}
	key := r.PathValue("key")
	username := r.URL.Query().Get("username")
	if findUser(s.cfg.Users, username) == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{"user not assignable"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	iss, ok := s.cfg.Issues[key]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"errorMessages": []string{"Issue Does Not Exist"}})
		return
	}
	iss.Assignee = username
	s.cfg.Issues[key] = iss
	log.Printf("ASSIGN %s -> %s", key, username)
	w.WriteHeader(http.StatusNoContent)
}

// comment appends a comment to the issue.
func (s *store) comment(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(w, r) || s.forced(w, r) {
		return
	}
	key := r.PathValue("key")
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Body) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errorMessages": []string{"comment body is required"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cfg.Issues[key]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"errorMessages": []string{"Issue Does Not Exist"}})
		return
	}
	c := jira.Comment{ID: strconv.Itoa(len(s.comments[key]) + 1), Body: body.Body}
	s.comments[key] = append(s.comments[key], c)
	log.Printf("COMMENT %s #%s: %s", key, c.ID, truncate(c.Body, 80))
	writeJSON(w, http.StatusCreated, c)
}

// showDialog records an opened or updated dialog.
func (s *store) showDialog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Service  string `json:"service"`
		Template string `json:"template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid dialog"})
		return
	}
	s.mu.Lock()
	_, open := s.dialogs[req.ID]
	s.dialogs[req.ID] = req.Template
	s.mu.Unlock()

	verb := "OPEN"
	if open {
		verb = "UPDATE"
	}
	log.Printf("DIALOG %s %s (service %s, %d bytes)", verb, req.ID, req.Service, len(req.Template))
	w.WriteHeader(http.StatusNoContent)
}

// closeDialog forgets a dialog. Unknown ids are 404.
func (s *store) closeDialog(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	_, ok := s.dialogs[id]
	delete(s.dialogs, id)
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	log.Printf("DIALOG CLOSE %s", id)
	w.WriteHeader(http.StatusNoContent)
}

// authenticated verifies the bearer token minted by authorize.
func (s *store) authenticated(w http.ResponseWriter, r *http.Request) bool {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.SigningKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject != r.URL.Query().Get("url") {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

// forced answers with the configured failure status for the issue, if any.
func (s *store) forced(w http.ResponseWriter, r *http.Request) bool {
	code, ok := s.cfg.FailIssues[r.PathValue("key")]
	if !ok {
		return false
	}
	writeJSON(w, code, map[string]any{"errorMessages": []string{http.StatusText(code)}})
	return true
}

func (s *store) lookupIssue(key string) (Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iss, ok := s.cfg.Issues[key]
	return iss, ok
}

func findUser(users []User, name string) *jira.User {
	if name == "" {
		return nil
	}
	for _, u := range users {
		if u.Name == name {
			ju := u.jira()
			return &ju
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func applyRandomDelay(minMs, maxMs int) {
	if maxMs <= minMs {
		maxMs = minMs + 1
	}
	delta := rand.Intn(maxMs-minMs) + minMs
	time.Sleep(time.Duration(delta) * time.Millisecond)
}

func logRequest(r *http.Request, logBody bool) {
	redacted := http.Header{}
	for k, vv := range r.Header {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			redacted[k] = []string{"<redacted>"}
		} else {
			redacted[k] = vv
		}
	}

	var bodyPreview string
	if logBody && r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		bodyPreview = string(b)
		r.Body = io.NopCloser(strings.NewReader(bodyPreview))
	}

	log.Printf("REQ %s %s?%s headers=%v body=%s",
		r.Method, r.URL.Path, r.URL.RawQuery, redacted, truncate(bodyPreview, 2048))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
