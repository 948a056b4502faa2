package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"epdpanel/internal/palette"
	"epdpanel/internal/schedule"
)

var (
	ErrSize    = errors.New("config: width and height must be positive")
	ErrPalette = errors.New("config: unknown palette")
	ErrDriver  = errors.New("config: unknown epd driver")
	ErrPanels  = errors.New("config: panel spec is empty")
)

// Display driver names accepted in the epd field.
const (
	DriverFile    = "file"
	Driver7in3e   = "epd7in3e"
	Driver2in13v4 = "epd2in13v4"
)

const (
	DefaultOutput  = "test_image.png"
	DefaultRefresh = 60
)

// ScheduleEntry is one step of the rotation. Duration is in seconds.
type ScheduleEntry struct {
	PanelID  int  `yaml:"panel_id" json:"panel_id"`
	Duration int  `yaml:"duration" json:"duration"`
	Refresh  bool `yaml:"refresh" json:"refresh"`
}

// Bedtime is the optional daily quiet-hours window.
type Bedtime struct {
	Start   string `yaml:"start" json:"start"`
	End     string `yaml:"end" json:"end"`
	PanelID int    `yaml:"panel_id" json:"panel_id"`
}

// BasicAuthConfig protects the preview server except /health.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PanelSpec describes one node of a panel tree.
type PanelSpec struct {
	Type     string         `yaml:"type" json:"type"`
	Width    int            `yaml:"width,omitempty" json:"width,omitempty"`
	Height   int            `yaml:"height,omitempty" json:"height,omitempty"`
	Settings map[string]any `yaml:"settings,omitempty" json:"settings,omitempty"`
	Panels   []PanelSpec    `yaml:"panels,omitempty" json:"panels,omitempty"`
}

// Settings is the top-level settings document.
type Settings struct {
	Width   int    `yaml:"width" json:"width"`
	Height  int    `yaml:"height" json:"height"`
	Palette string `yaml:"palette" json:"palette"`

	// PanelSpec is the path of the panel spec document.
	PanelSpec string `yaml:"panel_spec" json:"panel_spec"`

	Schedule []ScheduleEntry `yaml:"schedule" json:"schedule"`
	Bedtime  *Bedtime        `yaml:"bedtime,omitempty" json:"bedtime,omitempty"`

	// Refresh is the redraw interval in seconds for refreshing slots.
	Refresh int `yaml:"refresh" json:"refresh"`
	// RefreshCron, when set, replaces Refresh with a cron schedule.
	RefreshCron string `yaml:"refresh_cron,omitempty" json:"refresh_cron,omitempty"`

	EPD      string `yaml:"epd" json:"epd"`
	Output   string `yaml:"output" json:"output"`
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// Listen enables the preview server when non-empty.
	Listen    string           `yaml:"listen,omitempty" json:"listen,omitempty"`
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// Panels is the loaded panel spec document.
	Panels []PanelSpec `yaml:"-" json:"-"`
	// Location is the resolved Timezone.
	Location *time.Location `yaml:"-" json:"-"`
}

// DefaultSettings returns the settings written by a first run.
func DefaultSettings() *Settings {
	s := &Settings{
		Width:     800,
		Height:    480,
		Palette:   palette.SixColor,
		PanelSpec: "example/panels.json",
		Schedule:  []ScheduleEntry{{PanelID: 0, Duration: 300}},
	}
	s.Normalize()
	return s
}

// Normalize fills in zero values with defaults.
func (s *Settings) Normalize() {
	if s.Palette == "" {
		s.Palette = palette.SixColor
	}
	if name, ok := palette.Canonical(s.Palette); ok {
		s.Palette = name
	}
	if s.PanelSpec == "" {
		s.PanelSpec = "example/panels.json"
	}
	if s.Refresh <= 0 {
		s.Refresh = DefaultRefresh
	}
	if s.EPD == "" {
		s.EPD = DriverFile
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	if s.CacheDir == "" {
		s.CacheDir = ".cache"
	}
	s.EPD = strings.ToLower(strings.TrimSpace(s.EPD))
}

// Validate checks everything a render loop depends on. Panels must be
// loaded first.
func (s *Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrSize, s.Width, s.Height)
	}
	if !palette.Valid(s.Palette) {
		return fmt.Errorf("%w: %q (want %s or %s)", ErrPalette, s.Palette, palette.SixColor, palette.Grayscale)
	}
	switch s.EPD {
	case DriverFile, Driver7in3e, Driver2in13v4:
	default:
		return fmt.Errorf("%w: %q", ErrDriver, s.EPD)
	}
	if len(s.Panels) == 0 {
		return ErrPanels
	}
	if s.RefreshCron != "" {
		if _, err := cron.ParseStandard(s.RefreshCron); err != nil {
			return fmt.Errorf("config: refresh_cron: %w", err)
		}
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("config: timezone: %w", err)
		}
	}
	quiet, err := s.QuietHours()
	if err != nil {
		return err
	}
	if _, err := schedule.New(s.Entries(), quiet, len(s.Panels), nil); err != nil {
		return err
	}
	return nil
}

// Entries converts the schedule to scheduler entries.
func (s *Settings) Entries() []schedule.Entry {
	out := make([]schedule.Entry, len(s.Schedule))
	for i, e := range s.Schedule {
		out[i] = schedule.Entry{
			PanelID:  e.PanelID,
			Duration: time.Duration(e.Duration) * time.Second,
			Refresh:  e.Refresh,
		}
	}
	return out
}

// QuietHours parses the bedtime window; nil when none is configured.
func (s *Settings) QuietHours() (*schedule.QuietHours, error) {
	if s.Bedtime == nil {
		return nil, nil
	}
	start, err := schedule.ParseTimeOfDay(s.Bedtime.Start)
	if err != nil {
		return nil, fmt.Errorf("config: bedtime start: %w", err)
	}
	end, err := schedule.ParseTimeOfDay(s.Bedtime.End)
	if err != nil {
		return nil, fmt.Errorf("config: bedtime end: %w", err)
	}
	return &schedule.QuietHours{Start: start, End: end, PanelID: s.Bedtime.PanelID}, nil
}

// RefreshInterval is Refresh as a duration.
func (s *Settings) RefreshInterval() time.Duration {
	return time.Duration(s.Refresh) * time.Second
}

// ApplyGlobals forces every top-level panel to the display size and palette.
func (s *Settings) ApplyGlobals() {
	for i := range s.Panels {
		p := &s.Panels[i]
		p.Width, p.Height = s.Width, s.Height
		if p.Settings == nil {
			p.Settings = map[string]any{}
		}
		p.Settings["palette"] = s.Palette
	}
}

// Load reads the settings document at path and the panel spec it points to,
// applies defaults and validates the result.
func Load(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New("config: settings path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read settings: %w", err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	s.Normalize()

	panels, err := LoadPanels(resolve(s.PanelSpec, filepath.Dir(path)))
	if err != nil {
		return nil, err
	}
	s.Panels = panels

	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Location = time.Local
	if s.Timezone != "" {
		s.Location, _ = time.LoadLocation(s.Timezone)
	}
	s.ApplyGlobals()
	return &s, nil
}

// LoadPanels reads a panel spec document: a list of PanelSpec.
func LoadPanels(path string) ([]PanelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read panel spec: %w", err)
	}
	var panels []PanelSpec
	if err := yaml.Unmarshal(data, &panels); err != nil {
		return nil, fmt.Errorf("config: parse panel spec %s: %w", path, err)
	}
	for i, p := range panels {
		if err := checkSpec(p); err != nil {
			return nil, fmt.Errorf("config: panel %d: %w", i, err)
		}
	}
	return panels, nil
}

func checkSpec(p PanelSpec) error {
	if strings.TrimSpace(p.Type) == "" {
		return errors.New("missing type")
	}
	for i, c := range p.Panels {
		if err := checkSpec(c); err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
	}
	return nil
}

// resolve keeps paths that exist relative to the working directory and
// otherwise interprets them relative to base.
func resolve(path, base string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(base, path)
}

// Save writes settings atomically (temp file + rename, mode 0600) as JSON
// for .json paths and YAML otherwise.
func Save(path string, s *Settings) error {
	if path == "" {
		return errors.New("config: settings path is empty")
	}
	if s == nil {
		return errors.New("config: settings are nil")
	}
	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epdpanel-settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// WriteDefault creates a default settings file at path unless one exists.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, Save(path, DefaultSettings())
}
