package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestContributions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Variables["username"] != "octocat" || req.Variables["from"] != "2023-01-01T00:00:00Z" {
			t.Errorf("variables = %v", req.Variables)
		}
		_, _ = w.Write([]byte(`{"data":{"user":{"contributionsCollection":{"contributionCalendar":{
			"totalContributions": 5,
			"weeks": [
				{"contributionDays": [{"color": "#ebedf0", "contributionCount": 0, "date": "2023-01-01"}]},
				{"contributionDays": [{"color": "#40c463", "contributionCount": 5, "date": "2023-01-08"}]}
			]}}}}}`))
	}))
	defer srv.Close()

	weeks, err := New("tok", srv.URL, nil).Contributions(context.Background(), "octocat", 2023)
	if err != nil {
		t.Fatalf("Contributions: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("weeks = %d, want 2", len(weeks))
	}
	day := weeks[1].Days[0]
	if day.Count != 5 || day.Color != "#40c463" || day.Date != "2023-01-08" {
		t.Errorf("day = %+v", day)
	}
}

func TestContributionsUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"user":null}}`))
	}))
	defer srv.Close()

	_, err := New("", srv.URL, nil).Contributions(context.Background(), "ghost", 0)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestContributionsGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Bad credentials"}]}`))
	}))
	defer srv.Close()

	if _, err := New("bad", srv.URL, nil).Contributions(context.Background(), "octocat", 0); err == nil {
		t.Fatal("expected an error")
	}
}
