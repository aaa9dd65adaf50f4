// Package main implements a mock rules backend for local development. It
// serves a ruler config API (rule groups as YAML) and a Prometheus rules API
// (JSON) over the same rule groups, with changes reaching the Prometheus
// side only after a configurable lag, plus an OAuth2 token endpoint.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type ruleGroup struct {
	Name     string `yaml:"name"               json:"name"`
	Interval string `yaml:"interval,omitempty" json:"-"`
	Rules    []rule `yaml:"rules"              json:"-"`
}

type rule struct {
	Alert       string            `yaml:"alert,omitempty"`
	Record      string            `yaml:"record,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// version is one state of a group. A nil group marks a deletion.
type version struct {
	at    time.Time
	group *ruleGroup
}

type groupKey struct {
	namespace string
	group     string
}

// rules holds every version of every group. Definition reads see the latest
// version; runtime reads see the latest version older than the lag.
type rules struct {
	mu       sync.RWMutex
	versions map[groupKey][]version
	lag      time.Duration
	now      func() time.Time
}

func newRules(lag time.Duration) *rules {
	return &rules{
		versions: make(map[groupKey][]version),
		lag:      lag,
		now:      time.Now,
	}
}

func (s *rules) put(namespace string, g *ruleGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := groupKey{namespace, g.Name}
	s.versions[k] = append(s.versions[k], version{at: s.now(), group: g})
}

func (s *rules) remove(namespace, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := groupKey{namespace, name}
	vs := s.versions[k]
	if len(vs) == 0 || vs[len(vs)-1].group == nil {
		return false
	}
	s.versions[k] = append(vs, version{at: s.now()})
	return true
}

// definition returns the latest version of a group.
func (s *rules) definition(namespace, name string) *ruleGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs := s.versions[groupKey{namespace, name}]
	if len(vs) == 0 {
		return nil
	}
	return vs[len(vs)-1].group
}

// runtime returns every group as the lagging evaluator sees it.
func (s *rules) runtime() map[groupKey]*ruleGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.lag)
	out := make(map[groupKey]*ruleGroup)
	for k, vs := range s.versions {
		for i := len(vs) - 1; i >= 0; i-- {
			if vs[i].at.After(cutoff) {
				continue
			}
			if vs[i].group != nil {
				out[k] = vs[i].group
			}
			break
		}
	}
	return out
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "YAML file of namespace -> rule groups to preload")
	lag := flag.Duration("lag", 10*time.Second, "delay before a change reaches the Prometheus rules API")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := newRules(*lag)
	if *fixtureFile != "" {
		n, err := loadFixture(store, *fixtureFile)
		if err != nil {
			logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded fixture", "groups", n)
	}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock rules backend", "addr", addr, "lag", *lag)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, store)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, store *rules) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", tokenHandler(logger))
	mux.HandleFunc("GET /api/v1/rules/{namespace}/{group}", getGroupHandler(store))
	mux.HandleFunc("POST /api/v1/rules/{namespace}", putGroupHandler(logger, store))
	mux.HandleFunc("DELETE /api/v1/rules/{namespace}/{group}", deleteGroupHandler(logger, store))
	mux.HandleFunc("GET /prometheus/api/v1/rules", promRulesHandler(store))
	return mux
}

// loadFixture preloads groups. Preloaded groups are visible on both sides
// at once.
func loadFixture(store *rules, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return 0, fmt.Errorf("reading fixture: %w", err)
	}
	var fixture map[string][]ruleGroup
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return 0, fmt.Errorf("parsing fixture: %w", err)
	}

	n := 0
	epoch := time.Time{}
	for ns, groups := range fixture {
		for i := range groups {
			g := groups[i]
			k := groupKey{ns, g.Name}
			store.versions[k] = append(store.versions[k], version{at: epoch, group: &g})
			n++
		}
	}
	return n, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery,
			"tenant", r.Header.Get("X-Scope-OrgID"))
		next.ServeHTTP(w, r)
	})
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Accept client credentials either as Basic Auth or form fields.
		_, _, ok := r.BasicAuth()
		if !ok {
			ok = r.PostFormValue("client_id") != ""
		}
		if !ok {
			logger.Warn("token request missing client credentials")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_client",
				"error_description": "client authentication failed",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "mock-token-v1-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
		logger.Info("issued mock token")
	}
}

func getGroupHandler(store *rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := store.definition(r.PathValue("namespace"), r.PathValue("group"))
		if g == nil {
			http.Error(w, "group does not exist", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		yaml.NewEncoder(w).Encode(g)
	}
}

func putGroupHandler(logger *slog.Logger, store *rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var g ruleGroup
		if err := yaml.Unmarshal(data, &g); err != nil || g.Name == "" {
			http.Error(w, "invalid rule group", http.StatusBadRequest)
			return
		}
		ns := r.PathValue("namespace")
		store.put(ns, &g)
		w.WriteHeader(http.StatusAccepted)
		logger.Info("group updated", "namespace", ns, "group", g.Name, "rules", len(g.Rules))
	}
}

func deleteGroupHandler(logger *slog.Logger, store *rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ns, name := r.PathValue("namespace"), r.PathValue("group")
		if !store.remove(ns, name) {
			http.Error(w, "group does not exist", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		logger.Info("group deleted", "namespace", ns, "group", name)
	}
}

type promResponse struct {
	Status string   `json:"status"`
	Data   promData `json:"data"`
}

type promData struct {
	Groups []promGroup `json:"groups"`
}

type promGroup struct {
	Name     string     `json:"name"`
	File     string     `json:"file"`
	Interval float64    `json:"interval"`
	Rules    []promRule `json:"rules"`
}

type promRule struct {
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	Query       string            `json:"query"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	State       string            `json:"state,omitempty"`
	Health      string            `json:"health"`
}

func promRulesHandler(store *rules) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wantGroups := r.URL.Query()["rule_group[]"]
		wantFiles := r.URL.Query()["file[]"]

		resp := promResponse{Status: "success", Data: promData{Groups: []promGroup{}}}
		for k, g := range store.runtime() {
			if !filterMatches(wantGroups, k.group) || !filterMatches(wantFiles, k.namespace) {
				continue
			}
			resp.Data.Groups = append(resp.Data.Groups, toPromGroup(k.namespace, g))
		}
		sort.Slice(resp.Data.Groups, func(i, j int) bool {
			a, b := resp.Data.Groups[i], resp.Data.Groups[j]
			if a.File != b.File {
				return a.File < b.File
			}
			return a.Name < b.Name
		})

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(resp)
	}
}

func filterMatches(want []string, v string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if w == v {
			return true
		}
	}
	return false
}

func toPromGroup(namespace string, g *ruleGroup) promGroup {
	interval := 60.0
	if d, err := time.ParseDuration(g.Interval); err == nil {
		interval = d.Seconds()
	}
	out := promGroup{Name: g.Name, File: namespace, Interval: interval, Rules: []promRule{}}
	for _, r := range g.Rules {
		pr := promRule{
			Query:       r.Expr,
			Labels:      r.Labels,
			Annotations: r.Annotations,
			Health:      "ok",
		}
		if r.Alert != "" {
			pr.Type = "alerting"
			pr.Name = r.Alert
			pr.State = "inactive"
		} else {
			pr.Type = "recording"
			pr.Name = r.Record
		}
		out.Rules = append(out.Rules, pr)
	}
	return out
}
