package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"epdpanel/internal/battery"
	"epdpanel/internal/config"
	"epdpanel/internal/epd"
	appLog "epdpanel/internal/log"
	"epdpanel/internal/panel"
	"epdpanel/internal/runner"
	"epdpanel/internal/web"
)

type flagConfig struct {
	settingsPath string
	listen       string
	debug        bool
	once         bool
	panelID      int
	renderOnly   bool
	clear        bool
	initSettings bool
}

// openDriver is swapped in tests.
var openDriver = epd.Open

func main() {
	os.Exit(run(parseFlags()))
}

// run returns the process exit code. Every path returns through the
// deferred cleanup so hardware handles are released on errors too.
func run(flags flagConfig) int {
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("epdpanel starting", "version", "0.1.0")

	if flags.initSettings {
		created, err := config.WriteDefault(flags.settingsPath)
		if err != nil {
			appLog.Error("failed to write default settings", err, "path", flags.settingsPath)
			return 1
		}
		appLog.Info("default settings", "path", flags.settingsPath, "created", created)
		return 0
	}

	conf, err := config.Load(flags.settingsPath)
	if err != nil {
		appLog.Error("failed to load settings", err, "settings_path", flags.settingsPath)
		return 1
	}
	if !flags.debug && conf.LogLevel != "" {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.renderOnly {
		conf.EPD = config.DriverFile
	}

	appLog.Info("effective settings",
		"width", conf.Width,
		"height", conf.Height,
		"palette", conf.Palette,
		"panels", len(conf.Panels),
		"schedule", len(conf.Schedule),
		"refresh", conf.Refresh,
		"refresh_cron", conf.RefreshCron,
		"epd", conf.EPD,
		"listen", conf.Listen,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	driver := openDriver(epd.Options{
		Name:   conf.EPD,
		Width:  conf.Width,
		Height: conf.Height,
		Output: conf.Output,
	})
	defer func() {
		if err := driver.Close(); err != nil {
			appLog.Error("display close failed", err)
		}
	}()

	if flags.clear {
		r, err := newRunner(conf, driver, nil, flags.debug)
		if err != nil {
			appLog.Error("invalid configuration", err)
			return 1
		}
		r.Shutdown()
		return 0
	}

	var (
		server   *web.Server
		observer runner.Observer
	)
	if conf.Listen != "" {
		var batt battery.Reader
		if usesKind(conf.Panels, panel.KindBattery) {
			batt = battery.NewI2CReader("", battery.DefaultAddr)
		}
		server = web.NewServer(web.Options{
			Listen:    conf.Listen,
			BasicAuth: conf.BasicAuth,
			Driver:    conf.EPD,
			Battery:   batt,
		})
		observer = server
	}

	r, err := newRunner(conf, driver, observer, flags.debug)
	if err != nil {
		appLog.Error("invalid configuration", err)
		return 1
	}

	if server != nil {
		go func() {
			if err := server.ListenAndServe(ctx); err != nil {
				appLog.Error("HTTP server stopped", err)
			}
		}()
	}

	if flags.once {
		img, err := r.Render(flags.panelID)
		if err != nil {
			appLog.Error("render failed", err, "panel", flags.panelID)
			return 1
		}
		if err := r.Display(img); err != nil {
			appLog.Error("display failed", err)
			return 1
		}
		appLog.Info("single frame shown", "panel", flags.panelID)
		return 0
	}

	if err := r.Run(ctx); err != nil {
		appLog.Error("render loop failed", err)
		return 1
	}
	appLog.Info("epdpanel exiting")
	return 0
}

func newRunner(conf *config.Settings, driver epd.Driver, observer runner.Observer, debug bool) (*runner.Runner, error) {
	return runner.New(runner.Options{
		Settings: conf,
		Driver:   driver,
		Observer: observer,
		Deps: panel.Deps{
			Debug:      debug,
			Fs:         afero.NewOsFs(),
			HTTPClient: &http.Client{Timeout: 30 * time.Second},
		},
	})
}

// usesKind reports whether any panel in the trees is of kind k.
func usesKind(specs []config.PanelSpec, k panel.Kind) bool {
	for _, s := range specs {
		if got, err := panel.ParseKind(s.Type); err == nil && got == k {
			return true
		}
		if usesKind(s.Panels, k) {
			return true
		}
	}
	return false
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.settingsPath, "settings", "example/setting.json", "Path to the settings file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides settings if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and panel debug overlays")
	flag.BoolVar(&cfg.once, "once", false, "Draw and display a single panel, then exit")
	flag.IntVar(&cfg.panelID, "panel", 0, "Panel index drawn by --once")
	flag.BoolVar(&cfg.renderOnly, "render-only", false, "Write frames to the output file; do not touch display hardware")
	flag.BoolVar(&cfg.clear, "clear", false, "Clear the display, put it to sleep and exit")
	flag.BoolVar(&cfg.initSettings, "init", false, "Write default settings to --settings unless the file exists, then exit")

	flag.Parse()

	if s := strings.TrimSpace(cfg.settingsPath); s == "" {
		appLog.Error("invalid flags", errors.New("--settings is empty"))
		os.Exit(1)
	}
	return cfg
}
