package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"epdpanel/internal/battery"
	"epdpanel/internal/config"
	"epdpanel/internal/runner"
	"epdpanel/internal/schedule"
)

type countingReader struct {
	status battery.Status
	err    error
	calls  int
}

func (c *countingReader) Read(context.Context) (battery.Status, error) {
	c.calls++
	return c.status, c.err
}

func get(t *testing.T, h http.Handler, path string, auth ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(auth) == 2 {
		req.SetBasicAuth(auth[0], auth[1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPreviewAndStatus(t *testing.T) {
	s := NewServer(Options{Driver: "file"})
	h := s.Handler()

	if rec := get(t, h, "/preview.png"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("preview before first frame = %d", rec.Code)
	}

	drawn := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	s.Publish(runner.Frame{
		Image:   image.NewRGBA(image.Rect(0, 0, 30, 20)),
		PanelID: 2,
		State:   schedule.Quiet,
		DrawnAt: drawn,
		Next:    drawn.Add(time.Hour),
	})

	rec := get(t, h, "/preview.png")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("preview = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Errorf("preview bounds = %v", img.Bounds())
	}

	rec = get(t, h, "/api/status")
	var st statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.PanelID != 2 || st.State != "quiet" || st.Driver != "file" || st.Frames != 1 || !st.NextUpdate.Equal(drawn.Add(time.Hour)) {
		t.Errorf("status = %+v", st)
	}
}

func TestBasicAuth(t *testing.T) {
	s := NewServer(Options{BasicAuth: &config.BasicAuthConfig{Username: "admin", Password: "pw"}})
	h := s.Handler()

	tests := []struct {
		path string
		auth []string
		want int
	}{
		{"/health", nil, http.StatusOK},
		{"/api/status", nil, http.StatusUnauthorized},
		{"/api/status", []string{"admin", "wrong"}, http.StatusUnauthorized},
		{"/api/status", []string{"admin", "pw"}, http.StatusOK},
	}
	for _, tt := range tests {
		if rec := get(t, h, tt.path, tt.auth...); rec.Code != tt.want {
			t.Errorf("%s auth=%v: code = %d, want %d", tt.path, tt.auth, rec.Code, tt.want)
		}
	}
}

func TestBasicAuthDisabledWhenIncomplete(t *testing.T) {
	s := NewServer(Options{BasicAuth: &config.BasicAuthConfig{Username: "admin"}})
	if rec := get(t, s.Handler(), "/api/status"); rec.Code != http.StatusOK {
		t.Errorf("code = %d, want 200 without a password", rec.Code)
	}
}

func TestBatteryIsCached(t *testing.T) {
	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	r := &countingReader{status: battery.Status{Percent: 76, VoltageMv: 3950}}
	s := NewServer(Options{Battery: r, Now: func() time.Time { return now }})
	h := s.Handler()

	for i := 0; i < 3; i++ {
		rec := get(t, h, "/api/battery")
		var br batteryResponse
		if err := json.NewDecoder(rec.Body).Decode(&br); err != nil {
			t.Fatal(err)
		}
		if br.Percent != 76 || br.VoltageMv != 3950 {
			t.Errorf("battery = %+v", br)
		}
	}
	if r.calls != 1 {
		t.Errorf("reads = %d, want 1", r.calls)
	}
	now = now.Add(batteryTTL)
	get(t, h, "/api/battery")
	if r.calls != 2 {
		t.Errorf("reads = %d, want 2 after ttl", r.calls)
	}
}

func TestBatteryErrors(t *testing.T) {
	if rec := get(t, NewServer(Options{}).Handler(), "/api/battery"); rec.Code != http.StatusNotFound {
		t.Errorf("no reader: code = %d", rec.Code)
	}
	s := NewServer(Options{Battery: &countingReader{err: errors.New("i2c")}})
	if rec := get(t, s.Handler(), "/api/battery"); rec.Code != http.StatusInternalServerError {
		t.Errorf("read error: code = %d", rec.Code)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := NewServer(Options{Listen: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
