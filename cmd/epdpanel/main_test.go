package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"epdpanel/internal/config"
	"epdpanel/internal/epd"
	"epdpanel/internal/panel"
)

type closeTracker struct {
	*epd.File
	displays int
	closed   bool
}

func (d *closeTracker) Display(buf []byte) error {
	d.displays++
	return d.File.Display(buf)
}

func (d *closeTracker) Close() error {
	d.closed = true
	return d.File.Close()
}

// stubDriver replaces openDriver for the duration of the test.
func stubDriver(t *testing.T) **closeTracker {
	t.Helper()
	var opened *closeTracker
	prev := openDriver
	openDriver = func(opts epd.Options) epd.Driver {
		opened = &closeTracker{File: epd.NewFile(afero.NewMemMapFs(), opts.Output, opts.Width, opts.Height)}
		return opened
	}
	t.Cleanup(func() { openDriver = prev })
	return &opened
}

func writeSettings(t *testing.T, panels string) string {
	t.Helper()
	dir := t.TempDir()
	panelPath := filepath.Join(dir, "panels.json")
	if err := os.WriteFile(panelPath, []byte(panels), 0o644); err != nil {
		t.Fatal(err)
	}
	settings := `{
  "width": 100,
  "height": 60,
  "palette": "six-color",
  "panel_spec": "` + filepath.ToSlash(panelPath) + `",
  "schedule": [{"panel_id": 0, "duration": 60}],
  "epd": "file",
  "output": "frame.png"
}`
	path := filepath.Join(dir, "setting.json")
	if err := os.WriteFile(path, []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunClosesDriverOnBadPanelSpec(t *testing.T) {
	opened := stubDriver(t)
	path := writeSettings(t, `[{"type": "bogus"}]`)

	if code := run(flagConfig{settingsPath: path, once: true}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if *opened == nil {
		t.Fatal("driver was never opened")
	}
	if !(*opened).closed {
		t.Error("driver left open after a configuration error")
	}
}

func TestRunOnceShowsOneFrame(t *testing.T) {
	opened := stubDriver(t)
	path := writeSettings(t, `[{"type": "text", "settings": {"text": "hello"}}]`)

	if code := run(flagConfig{settingsPath: path, once: true}); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	d := *opened
	if d.displays != 1 {
		t.Errorf("displays = %d, want 1", d.displays)
	}
	if !d.closed {
		t.Error("driver not closed")
	}
}

func TestRunMissingSettings(t *testing.T) {
	opened := stubDriver(t)
	if code := run(flagConfig{settingsPath: filepath.Join(t.TempDir(), "missing.json")}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if *opened != nil {
		t.Error("driver opened without settings")
	}
}

func TestUsesKind(t *testing.T) {
	tree := []config.PanelSpec{
		{Type: "text"},
		{Type: "vertical", Panels: []config.PanelSpec{{Type: "time"}, {Type: "battery"}}},
	}
	tests := []struct {
		kind panel.Kind
		want bool
	}{
		{panel.KindBattery, true},
		{panel.KindText, true},
		{panel.KindCalendar, false},
	}
	for _, tt := range tests {
		if got := usesKind(tree, tt.kind); got != tt.want {
			t.Errorf("usesKind(%v) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
