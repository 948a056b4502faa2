// Package web serves a small HTTP status surface next to the render loop:
// the last rendered frame, loop status and the battery reading.
package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"epdpanel/internal/battery"
	"epdpanel/internal/cache"
	"epdpanel/internal/config"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/runner"
)

const batteryTTL = 30 * time.Second

// Options configures a Server.
type Options struct {
	Listen    string
	BasicAuth *config.BasicAuthConfig
	Driver    string
	Battery   battery.Reader
	Now       func() time.Time
}

// Server keeps the latest frame published by the render loop and serves
// it over HTTP. Publish and the handlers may run concurrently.
type Server struct {
	opts Options
	mux  *http.ServeMux

	mu      sync.RWMutex
	preview []byte
	status  statusResponse

	batteryMu sync.Mutex
	battery   *cache.Entry[*battery.Status]
}

type statusResponse struct {
	PanelID    int       `json:"panel_id"`
	State      string    `json:"state"`
	Driver     string    `json:"driver"`
	DrawnAt    time.Time `json:"drawn_at"`
	NextUpdate time.Time `json:"next_update"`
	Frames     int       `json:"frames"`
}

type batteryResponse struct {
	Percent   int `json:"percent"`
	VoltageMv int `json:"voltage_mv"`
}

func NewServer(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:    opts,
		mux:     http.NewServeMux(),
		status:  statusResponse{PanelID: -1, Driver: opts.Driver},
		battery: cache.New[*battery.Status](batteryTTL, opts.Now),
	}
	s.registerRoutes()
	return s
}

// Publish implements runner.Observer.
func (s *Server) Publish(f runner.Frame) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, f.Image, imaging.PNG); err != nil {
		appLog.Error("preview encode failed", err, "panel", f.PanelID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preview = buf.Bytes()
	s.status.PanelID = f.PanelID
	s.status.State = f.State.String()
	s.status.DrawnAt = f.DrawnAt
	s.status.NextUpdate = f.Next
	s.status.Frames++
}

func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", s.opts.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	a := s.opts.BasicAuth
	return a != nil && a.Username != "" && a.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.opts.BasicAuth.Username
	password := s.opts.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="epdpanel", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.opts.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/battery", s.handleBattery)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last frame the loop drew.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	png := s.preview
	s.mu.RUnlock()
	if png == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame rendered yet")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, st)
}

// handleBattery reads through a short-lived cache so polling clients do not
// hit the I²C bus on every request.
func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	if s.opts.Battery == nil {
		writeError(w, http.StatusNotFound, "battery reader not configured")
		return
	}
	s.batteryMu.Lock()
	st := s.battery.Request(func() *battery.Status {
		status, err := s.opts.Battery.Read(r.Context())
		if err != nil {
			appLog.Error("battery read failed", err)
			return nil
		}
		return &status
	})
	s.batteryMu.Unlock()

	if st == nil {
		writeError(w, http.StatusInternalServerError, "failed to read battery")
		return
	}
	writeJSON(w, http.StatusOK, batteryResponse{Percent: st.Percent, VoltageMv: st.VoltageMv})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
