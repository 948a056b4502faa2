package ics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/spf13/afero"

	appLog "epdpanel/internal/log"
	"epdpanel/internal/model"
)

// CacheFile is the merged calendar written under the cache directory.
const CacheFile = "calendar_cache.ics"

const defaultHorizonDays = 90

// Options configures a Provider.
type Options struct {
	URLs []string

	// UseCache keeps the merged calendar on disk and falls back to it when
	// every feed fails.
	UseCache bool
	CacheDir string

	Location    *time.Location
	HorizonDays int

	Fs     afero.Fs
	Client *http.Client
	Now    func() time.Time
}

// Provider fetches and merges calendar feeds into events.
type Provider struct {
	opts    Options
	fetcher *Fetcher
}

func NewProvider(opts Options) *Provider {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = defaultHorizonDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cacheDir := ""
	if opts.UseCache {
		cacheDir = opts.CacheDir
	}
	return &Provider{
		opts:    opts,
		fetcher: NewFetcher(opts.Fs, cacheDir, opts.Client),
	}
}

// Events returns the expanded events of all feeds from today's midnight to
// the horizon, unsorted and unsplit. A nil result means no calendar could be
// obtained; an empty non-nil slice is a valid empty calendar.
func (p *Provider) Events(ctx context.Context) []model.CalendarEvent {
	cal, err := p.calendar(ctx)
	if err != nil {
		appLog.Error("calendar unavailable", err, "feeds", len(p.opts.URLs))
		return nil
	}

	now := p.opts.Now().In(p.opts.Location)
	from := anchorDate(now, p.opts.Location)
	events, err := Expand(ExtractEvents(cal), ExpandConfig{
		Location:   p.opts.Location,
		RangeStart: from,
		RangeEnd:   from.AddDate(0, 0, p.opts.HorizonDays),
	})
	if err != nil {
		appLog.Error("calendar expand failed", err)
		return nil
	}
	appLog.Debug("calendar events", "count", len(events))
	if events == nil {
		events = []model.CalendarEvent{}
	}
	return events
}

func (p *Provider) calendar(ctx context.Context) (*ical.Calendar, error) {
	if len(p.opts.URLs) == 0 {
		return nil, errors.New("ics: no calendar URLs configured")
	}

	sources := make([]Source, len(p.opts.URLs))
	for i, u := range p.opts.URLs {
		sources[i] = Source{ID: fmt.Sprintf("cal%d", i), URL: u}
	}
	results, _ := p.fetcher.FetchAll(ctx, sources)

	cals := make([]*ical.Calendar, 0, len(results))
	for _, res := range results {
		c, err := ParseCalendar(res.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", res.Source.ID)
			continue
		}
		cals = append(cals, c)
	}

	if len(cals) == 0 {
		if !p.opts.UseCache {
			return nil, errors.New("ics: every feed failed")
		}
		c, err := p.loadCache()
		if err != nil {
			return nil, fmt.Errorf("ics: every feed failed and no usable cache: %w", err)
		}
		appLog.Info("calendar served from cache", "path", p.cachePath())
		return c, nil
	}

	merged := Merge(cals...)
	if p.opts.UseCache {
		if err := p.saveCache(merged); err != nil {
			appLog.Error("calendar cache save failed", err, "path", p.cachePath())
		}
	}
	return merged, nil
}

func (p *Provider) cachePath() string {
	return filepath.Join(p.opts.CacheDir, CacheFile)
}

func (p *Provider) loadCache() (*ical.Calendar, error) {
	data, err := afero.ReadFile(p.opts.Fs, p.cachePath())
	if err != nil {
		return nil, err
	}
	return ParseCalendar(data)
}

// saveCache writes through a temp file and renames it into place.
func (p *Provider) saveCache(cal *ical.Calendar) error {
	dir := p.opts.CacheDir
	if dir == "" {
		dir = "."
	}
	if err := p.opts.Fs.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := afero.TempFile(p.opts.Fs, dir, CacheFile+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(cal.Serialize()); err != nil {
		_ = tmp.Close()
		_ = p.opts.Fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = p.opts.Fs.Remove(tmpName)
		return err
	}
	return p.opts.Fs.Rename(tmpName, p.cachePath())
}
