package cmclip

import (
	"testing"

	"github.com/pkg/errors"
)

func TestSystemGetTextRetriesAcquisition(t *testing.T) {
	origRead := readAll
	t.Cleanup(func() { readAll = origRead })

	calls := 0
	readAll = func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("clipboard busy")
		}
		return "recovered", nil
	}

	text, err := System{}.GetText()
	if err != nil {
		t.Fatalf("GetText failed: %v", err)
	}
	if text != "recovered" || calls != 3 {
		t.Errorf("text = %q after %d calls, want recovered after 3", text, calls)
	}
}

func TestSystemSetTextGivesUpAfterRetries(t *testing.T) {
	origWrite := writeAll
	t.Cleanup(func() { writeAll = origWrite })

	calls := 0
	writeAll = func(string) error {
		calls++
		return errors.New("clipboard busy")
	}

	if err := (System{}).SetText("x"); err == nil {
		t.Error("SetText succeeded although every attempt failed")
	}
	if calls != acquireAttempts {
		t.Errorf("attempts = %d, want %d", calls, acquireAttempts)
	}
}
