// Package cmclip wraps the system clipboard and runs the standby watcher
// that turns copied mission codes into pushes.
package cmclip

import (
	"time"

	atotto "github.com/atotto/clipboard"
	"github.com/pkg/errors"
)

// Clipboard is a plain-text clipboard.
type Clipboard interface {
	GetText() (string, error)
	SetText(text string) error
}

// Clipboard acquisition can fail transiently while another process holds it.
const (
	acquireAttempts = 5
	acquireBackoff  = 50 * time.Millisecond
)

// Hooks for tests.
var (
	readAll  = atotto.ReadAll
	writeAll = atotto.WriteAll
)

// System is the real clipboard, with retries on acquisition failure.
type System struct{}

func (System) GetText() (string, error) {
	var text string
	err := withRetry(func() error {
		var err error
		text, err = readAll()
		return err
	})
	if err != nil {
		return "", errors.Wrap(err, "get clipboard text")
	}
	return text, nil
}

func (System) SetText(text string) error {
	err := withRetry(func() error {
		return writeAll(text)
	})
	return errors.Wrap(err, "set clipboard text")
}

func withRetry(f func() error) error {
	var err error
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		if err = f(); err == nil {
			return nil
		}
		time.Sleep(acquireBackoff)
	}
	return err
}
