package widget

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-lookup/internal/observability"
	"github.com/i474232898/weather-lookup/internal/prefs"
	"github.com/i474232898/weather-lookup/internal/weather"
)

// Status is the state of the fetch state machine.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrNoSuchRecent is returned by SelectRecent for an index outside the list.
var ErrNoSuchRecent = errors.New("no recent search at that position")

// Controller owns the transient query state of one widget session and drives
// lookups through the weather Fetcher. It is safe for concurrent use; the
// mutex is never held while a fetch is in flight.
type Controller struct {
	fetcher weather.Fetcher
	prefs   *prefs.Store
	metrics *observability.Metrics

	mu     sync.Mutex
	recent prefs.RecentSearches
	unit   prefs.Unit

	input    string
	status   Status
	errMsg   string
	result   *weather.Result
	lastCity string

	// latest is the id of the most recently issued fetch; only its result
	// is applied.
	latest uint64
}

// New creates a Controller and loads the persisted preferences once.
// metrics may be nil.
func New(ctx context.Context, fetcher weather.Fetcher, store *prefs.Store, metrics *observability.Metrics) *Controller {
	recent, unit := store.Load(ctx)
	log.Printf("INFO: widget: loaded %d recent searches, unit %s", len(recent), unit)

	return &Controller{
		fetcher: fetcher,
		prefs:   store,
		metrics: metrics,
		recent:  recent,
		unit:    unit,
		status:  StatusIdle,
	}
}

// SetInput records the pending text of the search box. Allowed in every
// state, including while a fetch is outstanding.
func (c *Controller) SetInput(text string) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
	return c.viewLocked()
}

// SubmitInput searches for the pending input text (the Enter key). Blank
// input is ignored and submitted is false.
func (c *Controller) SubmitInput(ctx context.Context) (v View, submitted bool) {
	c.mu.Lock()
	city := strings.TrimSpace(c.input)
	c.mu.Unlock()

	if city == "" {
		return c.View(), false
	}
	return c.Search(ctx, city), true
}

// SelectRecent re-runs the lookup for the recent search at index.
func (c *Controller) SelectRecent(ctx context.Context, index int) (View, error) {
	c.mu.Lock()
	if index < 0 || index >= len(c.recent) {
		c.mu.Unlock()
		return View{}, ErrNoSuchRecent
	}
	city := c.recent[index]
	c.mu.Unlock()

	return c.Search(ctx, city), nil
}

// Refresh re-fetches the city currently on display in the background. It
// is not a user lookup: it issues no request id and leaves the input text,
// status and recent searches alone. Its result is dropped when the user
// started a lookup in the meantime. It reports false when nothing is
// displayed, a user lookup is in flight, or the result was dropped.
func (c *Controller) Refresh(ctx context.Context) (View, bool) {
	c.mu.Lock()
	city := c.lastCity
	issued := c.latest
	busy := c.status == StatusLoading
	c.mu.Unlock()

	if city == "" || busy {
		return c.View(), false
	}

	started := time.Now()
	res, err := c.fetcher.FetchWeather(ctx, city)
	took := time.Since(started)

	c.mu.Lock()
	defer c.mu.Unlock()

	provider := c.fetcher.Name()
	if c.latest != issued {
		log.Printf("DEBUG: widget: discarding refresh of %q, a newer lookup was started", city)
		c.metrics.ObserveFetch(provider, observability.OutcomeStale, took)
		return c.viewLocked(), false
	}
	if err != nil {
		// The last good result stays on display.
		log.Printf("INFO: widget: refresh of %q failed: %v", city, err)
		c.metrics.ObserveFetch(provider, observability.OutcomeFailure, took)
		return c.viewLocked(), false
	}

	snapshot := res
	c.result = &snapshot
	c.metrics.ObserveFetch(provider, observability.OutcomeSuccess, took)
	return c.viewLocked(), true
}

// Search fetches the weather for city and applies the outcome unless a newer
// search was started in the meantime. Fetch failures never escape: they end
// up as the displayed error message. The returned View reflects the state
// after this search has been resolved (or discarded).
func (c *Controller) Search(ctx context.Context, city string) View {
	city = strings.TrimSpace(city)
	if city == "" {
		return c.View()
	}

	id := c.begin()
	started := time.Now()
	res, err := c.fetcher.FetchWeather(ctx, city)
	c.finish(ctx, id, city, res, err, time.Since(started))

	return c.View()
}

// ToggleUnit flips the display unit and persists it. It never fetches.
func (c *Controller) ToggleUnit(ctx context.Context) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unit = c.prefs.ToggleUnit(context.WithoutCancel(ctx), c.unit)
	c.metrics.ObservePreferenceWrite(prefs.KeyTemperatureUnit)
	return c.viewLocked()
}

// View returns the current projection of the widget state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// begin enters Loading, clears the previous error and issues a request id.
// The previous result stays on display until the new one resolves.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest++
	c.status = StatusLoading
	c.errMsg = ""
	return c.latest
}

func (c *Controller) finish(ctx context.Context, id uint64, city string, res weather.Result, err error, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	provider := c.fetcher.Name()
	if id != c.latest {
		log.Printf("DEBUG: widget: discarding stale result for %q (request %d, latest %d)", city, id, c.latest)
		c.metrics.ObserveFetch(provider, observability.OutcomeStale, took)
		return
	}

	if err != nil {
		c.status = StatusFailed
		c.errMsg = weather.Message(err)
		log.Printf("INFO: widget: lookup for %q failed: %v", city, err)
		c.metrics.ObserveFetch(provider, observability.OutcomeFailure, took)
		return
	}

	snapshot := res
	c.result = &snapshot
	c.lastCity = city
	c.input = ""
	c.errMsg = ""
	c.status = StatusSuccess
	// Persist even if the caller has gone away; the lookup itself succeeded.
	c.recent = c.prefs.RecordSearch(context.WithoutCancel(ctx), city, c.recent)
	c.metrics.ObservePreferenceWrite(prefs.KeyRecentSearches)
	c.metrics.ObserveFetch(provider, observability.OutcomeSuccess, took)
}
