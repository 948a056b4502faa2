// Package toggl reads time entries and projects from the Toggl Track v9 API.
package toggl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	appLog "epdpanel/internal/log"
	"epdpanel/internal/model"
)

const DefaultBaseURL = "https://api.track.toggl.com/api/v9"

// ErrUnauthorized is returned when Toggl rejects the API key.
var ErrUnauthorized = errors.New("toggl: api key rejected")

// Client is a minimal Toggl Track client authenticated with an API token.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client. An empty baseURL uses DefaultBaseURL and a nil
// httpClient gets a 15 second timeout.
func New(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

type me struct {
	DefaultWorkspaceID int64 `json:"default_workspace_id"`
}

// DefaultWorkspace verifies the key and returns the user's default workspace.
func (c *Client) DefaultWorkspace(ctx context.Context) (int64, error) {
	var m me
	if err := c.get(ctx, "/me", nil, &m); err != nil {
		return 0, err
	}
	return m.DefaultWorkspaceID, nil
}

// TimeEntries lists entries whose start falls in [start, end).
func (c *Client) TimeEntries(ctx context.Context, start, end time.Time) ([]model.TimeEntry, error) {
	q := url.Values{}
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	var entries []model.TimeEntry
	if err := c.get(ctx, "/me/time_entries", q, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Projects lists the projects of a workspace keyed by id.
func (c *Client) Projects(ctx context.Context, workspaceID int64) (map[int64]model.Project, error) {
	var list []model.Project
	path := "/workspaces/" + strconv.FormatInt(workspaceID, 10) + "/projects"
	if err := c.get(ctx, path, nil, &list); err != nil {
		return nil, err
	}
	out := make(map[int64]model.Project, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("toggl: build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "api_token")
	req.Header.Set("Content-Type", "application/json")

	appLog.Debug("toggl request", "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("toggl: %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("toggl: %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("toggl: decode %s: %w", path, err)
	}
	return nil
}

// ProjectTotal is the tracked time of one project over the summary window.
type ProjectTotal struct {
	Name     string
	Color    string
	Duration time.Duration
}

// Summary is what the toggl panel draws.
type Summary struct {
	Running        *model.TimeEntry
	RunningProject string
	Totals         []ProjectTotal
	Total          time.Duration
}

// Summarize fetches the last days of entries up to now and totals them per
// project, largest first. Entries without a project are grouped under
// "No project".
func (c *Client) Summarize(ctx context.Context, now time.Time, days int) (*Summary, error) {
	if days <= 0 {
		days = 7
	}
	wid, err := c.DefaultWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := c.Projects(ctx, wid)
	if err != nil {
		return nil, err
	}
	start := now.AddDate(0, 0, -days)
	entries, err := c.TimeEntries(ctx, start, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return summarize(entries, projects, now), nil
}

func summarize(entries []model.TimeEntry, projects map[int64]model.Project, now time.Time) *Summary {
	s := &Summary{}
	byName := map[string]*ProjectTotal{}
	for i := range entries {
		e := entries[i]
		name, color := "No project", ""
		if p, ok := projects[e.ProjectID]; ok {
			name, color = p.Name, p.Color
		}
		if e.Running() {
			s.Running = &entries[i]
			s.RunningProject = name
		}
		d := e.Elapsed(now)
		if d < 0 {
			d = 0
		}
		t, ok := byName[name]
		if !ok {
			t = &ProjectTotal{Name: name, Color: color}
			byName[name] = t
		}
		t.Duration += d
		s.Total += d
	}
	for _, t := range byName {
		s.Totals = append(s.Totals, *t)
	}
	sort.Slice(s.Totals, func(i, j int) bool {
		if s.Totals[i].Duration != s.Totals[j].Duration {
			return s.Totals[i].Duration > s.Totals[j].Duration
		}
		return s.Totals[i].Name < s.Totals[j].Name
	})
	return s
}

// FormatDuration renders d as "3h 05m" or "42m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}
