// Package github fetches a user's contribution calendar over the GraphQL API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	appLog "epdpanel/internal/log"
	"epdpanel/internal/model"
)

const DefaultEndpoint = "https://api.github.com/graphql"

var ErrUserNotFound = errors.New("github: user not found")

const contributionsQuery = `query GetUserContributions($username: String!, $from: DateTime, $to: DateTime) {
  user(login: $username) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            color
            contributionCount
            date
          }
        }
      }
    }
  }
}`

type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// New creates a Client. An empty endpoint uses DefaultEndpoint.
func New(token, endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: endpoint, token: token, http: httpClient}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type response struct {
	Data struct {
		User *struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					TotalContributions int                      `json:"totalContributions"`
					Weeks              []model.ContributionWeek `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Contributions returns the contribution weeks of username, oldest first.
// A non-zero year restricts the window to that calendar year; otherwise
// GitHub's default (the last year) applies.
func (c *Client) Contributions(ctx context.Context, username string, year int) ([]model.ContributionWeek, error) {
	if username == "" {
		return nil, errors.New("github: username is empty")
	}
	vars := map[string]any{"username": username}
	if year > 0 {
		vars["from"] = fmt.Sprintf("%d-01-01T00:00:00Z", year)
		vars["to"] = fmt.Sprintf("%d-12-31T23:59:59Z", year)
	}
	body, err := json.Marshal(request{Query: contributionsQuery, Variables: vars})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("github: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	appLog.Debug("github contributions request", "user", username, "year", year)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github: %s", resp.Status)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("github: decode: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, e := range out.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("github: graphql: %s", strings.Join(msgs, "; "))
	}
	if out.Data.User == nil {
		return nil, ErrUserNotFound
	}
	weeks := out.Data.User.ContributionsCollection.ContributionCalendar.Weeks
	appLog.Debug("github contributions", "user", username, "weeks", len(weeks))
	return weeks, nil
}
