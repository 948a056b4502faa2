package panel

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"epdpanel/internal/battery"
	"epdpanel/internal/capture"
	"epdpanel/internal/config"
	"epdpanel/internal/github"
	"epdpanel/internal/ics"
	"epdpanel/internal/palette"
	"epdpanel/internal/toggl"
)

// Kind is the closed set of panel types a spec may name.
type Kind int

const (
	KindText Kind = iota
	KindTime
	KindPicture
	KindPictureTime
	KindCalendar
	KindToggl
	KindGithub
	KindWeb
	KindBattery
	KindHorizontal
	KindVertical
	KindFour
)

var kindNames = map[string]Kind{
	"text":         KindText,
	"time":         KindTime,
	"picture":      KindPicture,
	"picture_time": KindPictureTime,
	"calendar":     KindCalendar,
	"toggl":        KindToggl,
	"github":       KindGithub,
	"web":          KindWeb,
	"battery":      KindBattery,
	"horizontal":   KindHorizontal,
	"vertical":     KindVertical,
	"four":         KindFour,
}

// ParseKind maps a spec type name to its Kind.
func ParseKind(s string) (Kind, error) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("panel: unknown panel type %q", s)
	}
	return k, nil
}

func (k Kind) String() string {
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Arity is the number of children a container kind holds; zero for
// content panels.
func (k Kind) Arity() int {
	switch k {
	case KindHorizontal, KindVertical:
		return 2
	case KindFour:
		return 4
	}
	return 0
}

// Deps carries the collaborators panels are built with. Zero values get
// production defaults.
type Deps struct {
	Context  context.Context
	Now      Clock
	Location *time.Location
	// Palette is the display palette; panels without their own use it to
	// decide whether accent colors are available.
	Palette string
	Debug   bool

	CacheDir   string
	Fs         afero.Fs
	HTTPClient *http.Client
	Getenv     func(string) string

	Capturer capture.Capturer
	Battery  battery.Reader

	// Endpoint overrides, empty for the public services.
	TogglBaseURL   string
	GithubEndpoint string
}

func (d Deps) withDefaults() Deps {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Palette == "" {
		d.Palette = palette.SixColor
	}
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Getenv == nil {
		d.Getenv = os.Getenv
	}
	return d
}

// Build constructs the panel tree described by spec. Unknown types and
// containers with too many children are errors.
func Build(spec config.PanelSpec, deps Deps) (Panel, error) {
	return build(spec, deps.withDefaults())
}

// Validate checks a spec tree without constructing any panel.
func Validate(spec config.PanelSpec) error {
	kind, err := ParseKind(spec.Type)
	if err != nil {
		return err
	}
	if n := kind.Arity(); len(spec.Panels) > n {
		if n == 0 {
			return fmt.Errorf("panel: %s cannot hold child panels", kind)
		}
		return fmt.Errorf("panel: %s holds at most %d panels, got %d", kind, n, len(spec.Panels))
	}
	for i, c := range spec.Panels {
		if err := Validate(c); err != nil {
			return fmt.Errorf("panel: %s child %d: %w", kind, i, err)
		}
	}
	return nil
}

func build(spec config.PanelSpec, d Deps) (Panel, error) {
	kind, err := ParseKind(spec.Type)
	if err != nil {
		return nil, err
	}
	s := Settings(spec.Settings)
	if s == nil {
		s = Settings{}
	}
	w, h := spec.Width, spec.Height

	if n := kind.Arity(); n > 0 {
		if len(spec.Panels) > n {
			return nil, fmt.Errorf("panel: %s holds at most %d panels, got %d", kind, n, len(spec.Panels))
		}
		children := make([]Panel, 0, len(spec.Panels))
		for i, cs := range spec.Panels {
			c, err := build(cs, d)
			if err != nil {
				return nil, fmt.Errorf("panel: %s child %d: %w", kind, i, err)
			}
			children = append(children, c)
		}
		switch kind {
		case KindHorizontal:
			return NewHorizontal(w, h, s, d.Debug, children...), nil
		case KindVertical:
			return NewVertical(w, h, s, d.Debug, children...), nil
		default:
			return NewFour(w, h, s, d.Debug, children...), nil
		}
	}
	if len(spec.Panels) > 0 {
		return nil, fmt.Errorf("panel: %s cannot hold child panels", kind)
	}

	switch kind {
	case KindText:
		return NewText(w, h, s, d.Debug), nil
	case KindTime:
		return NewTime(w, h, s, d.Debug, d.Now), nil
	case KindPicture:
		return NewPicture(w, h, s, d.Debug), nil
	case KindPictureTime:
		return NewPictureTime(w, h, s, d.Debug, d.Now), nil
	case KindCalendar:
		return buildCalendar(w, h, s, d), nil
	case KindToggl:
		var src TogglSource
		if key := firstNonEmpty(s.String("api_key", ""), d.Getenv("TOGGL_API_KEY")); key != "" {
			src = toggl.New(key, d.TogglBaseURL, d.HTTPClient)
		}
		return newToggl(w, h, s, d.Debug, d.Context, src, requestInterval(s, 5), d.Now), nil
	case KindGithub:
		token := firstNonEmpty(s.String("github_token", ""), d.Getenv("GITHUB_TOKEN"))
		src := github.New(token, d.GithubEndpoint, d.HTTPClient)
		return newGithub(w, h, s, d.Debug, d.Context, src, requestInterval(s, 60), d.Now), nil
	case KindWeb:
		c := d.Capturer
		if c == nil {
			c = capture.NewChromium()
		}
		return newWeb(w, h, s, d.Debug, d.Context, c, requestInterval(s, 30), d.Now), nil
	case KindBattery:
		r := d.Battery
		if r == nil {
			r = battery.DefaultReader(d.Context, s.String("bus", ""), uint16(s.Int("address", battery.DefaultAddr)))
		}
		return newBattery(w, h, s, d.Debug, d.Context, r, requestInterval(s, 5), d.Now), nil
	}
	return nil, fmt.Errorf("panel: unhandled panel type %s", kind)
}

func buildCalendar(w, h int, s Settings, d Deps) *Calendar {
	urls := append(s.Strings("ical_url"), s.Strings("ical_urls")...)
	src := ics.NewProvider(ics.Options{
		URLs:        urls,
		UseCache:    s.Bool("use_cache", false),
		CacheDir:    d.CacheDir,
		Location:    d.Location,
		HorizonDays: s.Int("horizon_days", 0),
		Fs:          d.Fs,
		Client:      d.HTTPClient,
		Now:         d.Now,
	})
	return newCalendar(w, h, s, d.Debug, calendarOptions{
		ctx:      d.Context,
		source:   src,
		loc:      d.Location,
		now:      d.Now,
		palette:  d.Palette,
		interval: requestInterval(s, 60),
	})
}

// requestInterval reads request_interval in minutes.
func requestInterval(s Settings, defMinutes float64) time.Duration {
	return time.Duration(s.Float("request_interval", defMinutes) * float64(time.Minute))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
