package cmclip

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"

	"github.com/infilengine/cmpush/pkg/cmcode"
	"github.com/infilengine/cmpush/pkg/cmrepo"
	"github.com/infilengine/cmpush/pkg/cmterm"
)

// pollInterval is how often the watcher samples the clipboard. Half a second
// keeps the clipboard from being hammered while still feeling immediate.
const pollInterval = 500 * time.Millisecond

// Publisher commits a parsed mission code.
type Publisher interface {
	Publish(ctx context.Context, code *cmcode.Code) (*cmrepo.Result, error)
}

// Watcher polls the clipboard for mission codes and publishes every new one
// it sees, writing the raw content URL back when a push succeeds.
type Watcher struct {
	Clipboard Clipboard
	Publisher Publisher

	// Debounce coalesces clipboard-change bursts so only the settled value
	// is published. Defaults to a pollInterval debouncer.
	Debounce func(f func())

	// Interval overrides pollInterval. For tests.
	Interval time.Duration

	mu       sync.Mutex
	lastSeen string
}

// Run blocks until ctx is cancelled. The context must carry a Log.
func (w *Watcher) Run(ctx context.Context) error {
	log := cmterm.FromContext(ctx)

	interval := w.Interval
	if interval <= 0 {
		interval = pollInterval
	}
	if w.Debounce == nil {
		w.Debounce = debounce.New(interval)
	}

	log.Info("Running in standby mode, watching the clipboard for mission codes")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		current, err := w.Clipboard.GetText()
		if err != nil {
			log.Warnf("Failed to retrieve clipboard text: %v", err)
			continue
		}

		w.mu.Lock()
		changed := current != w.lastSeen
		if changed {
			w.lastSeen = current
		}
		w.mu.Unlock()
		if !changed {
			continue
		}

		w.Debounce(func() {
			w.handle(ctx, log, current)
		})
	}
}

// handle publishes one clipboard value. Non-mission content is ignored
// silently; every other failure is logged and the watcher keeps going.
func (w *Watcher) handle(ctx context.Context, log *cmterm.Log, text string) {
	code, err := cmcode.Parse(text)
	if errors.Is(err, cmcode.ErrNotMissionCode) {
		return
	}
	if err != nil {
		log.Errorf("Clipboard held a malformed mission code: %v", err)
		return
	}

	result, err := w.Publisher.Publish(ctx, code)
	if err != nil {
		log.Errorf("Failed to push mission from clipboard: %v", err)
		return
	}

	// Remember the URL before writing it so the next poll doesn't treat our
	// own write as new content.
	w.mu.Lock()
	w.lastSeen = result.RawURL
	w.mu.Unlock()

	if err := w.Clipboard.SetText(result.RawURL); err != nil {
		log.Errorf("Failed to copy link to clipboard: %v", err)
		return
	}

	if result.Tracked {
		log.Successf("Successfully pushed mission version %d!", result.Version)
	} else {
		log.Success("Successfully pushed untracked mission!")
	}
}
