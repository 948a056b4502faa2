package panel

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"epdpanel/internal/battery"
	"epdpanel/internal/config"
)

func testDeps() Deps {
	return Deps{
		Fs:       afero.NewMemMapFs(),
		Getenv:   func(string) string { return "" },
		Capturer: &fakeCapturer{},
		Battery:  battery.StaticReader{Status: battery.Status{Percent: 50}},
	}
}

func TestBuildTree(t *testing.T) {
	spec := config.PanelSpec{
		Type: "four", Width: 800, Height: 480,
		Panels: []config.PanelSpec{
			{Type: "calendar", Settings: map[string]any{"ical_url": "http://example.test/a.ics"}},
			{Type: "vertical", Panels: []config.PanelSpec{{Type: "time"}, {Type: "battery"}}},
			{Type: "toggl"},
			{Type: "Web", Settings: map[string]any{"url": "http://example.test"}},
		},
	}
	p, err := Build(spec, testDeps())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	four, ok := p.(*Split)
	if !ok || four.Arity() != 4 {
		t.Fatalf("root = %T", p)
	}
	if _, ok := four.Child(0).(*Calendar); !ok {
		t.Errorf("child 0 = %T, want *Calendar", four.Child(0))
	}
	tg, ok := four.Child(2).(*Toggl)
	if !ok {
		t.Fatalf("child 2 = %T, want *Toggl", four.Child(2))
	}
	if tg.source != nil {
		t.Error("toggl without a key should have no source")
	}
	if _, ok := four.Child(3).(*Web); !ok {
		t.Errorf("child 3 = %T, want *Web", four.Child(3))
	}
	v := four.Child(1).(*Split)
	w, h := four.ChildSize()
	if vw, vh := v.Size(); vw != w || vh != h {
		t.Errorf("nested container size = %dx%d, want %dx%d", vw, vh, w, h)
	}
	if !four.NeedsRefresh() {
		t.Error("tree with a time panel must refresh")
	}
}

func TestBuildTogglKeyFromEnv(t *testing.T) {
	d := testDeps()
	d.Getenv = func(k string) string {
		if k == "TOGGL_API_KEY" {
			return "secret"
		}
		return ""
	}
	p, err := Build(config.PanelSpec{Type: "toggl", Width: 100, Height: 100}, d)
	if err != nil {
		t.Fatal(err)
	}
	if p.(*Toggl).source == nil {
		t.Error("expected a toggl source from the environment key")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec config.PanelSpec
		want string
	}{
		{"unknown type", config.PanelSpec{Type: "clock"}, "unknown panel type"},
		{"too many children", config.PanelSpec{Type: "horizontal", Panels: []config.PanelSpec{
			{Type: "text"}, {Type: "text"}, {Type: "text"},
		}}, "at most 2"},
		{"content with children", config.PanelSpec{Type: "text", Panels: []config.PanelSpec{{Type: "text"}}}, "cannot hold"},
		{"bad nested child", config.PanelSpec{Type: "vertical", Panels: []config.PanelSpec{{Type: "nope"}}}, "child 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.spec, testDeps())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestBuildFewerChildren(t *testing.T) {
	p, err := Build(config.PanelSpec{Type: "four", Width: 200, Height: 200, Panels: []config.PanelSpec{{Type: "text"}}}, testDeps())
	if err != nil {
		t.Fatal(err)
	}
	if p.(*Split).Child(1) != nil {
		t.Error("missing slots should stay empty")
	}
	p.Draw()
}

func TestParseKind(t *testing.T) {
	for name, want := range kindNames {
		got, err := ParseKind(" " + strings.ToUpper(name))
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v", name, got, err)
		}
		if got.String() != name {
			t.Errorf("String() = %q, want %q", got.String(), name)
		}
	}
	if KindFour.Arity() != 4 || KindVertical.Arity() != 2 || KindText.Arity() != 0 {
		t.Error("unexpected arity")
	}
}


func TestValidate(t *testing.T) {
	ok := config.PanelSpec{Type: "four", Panels: []config.PanelSpec{
		{Type: "horizontal", Panels: []config.PanelSpec{{Type: "time"}, {Type: "text"}}},
		{Type: "github"},
	}}
	if err := Validate(ok); err != nil {
		t.Errorf("Validate: %v", err)
	}
	bad := config.PanelSpec{Type: "vertical", Panels: []config.PanelSpec{{Type: "text", Panels: []config.PanelSpec{{Type: "text"}}}}}
	if err := Validate(bad); err == nil {
		t.Error("expected error for content panel with children")
	}
}
