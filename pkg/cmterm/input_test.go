package cmterm

import (
	"testing"
	"time"
)

func newTestInput() (*Input, chan Key) {
	keys := make(chan Key, keyBuffer)
	redraw := make(chan struct{}, 1)
	return NewInput(keys, redraw), keys
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRequestLineCollectsEditedText(t *testing.T) {
	in, keys := newTestInput()

	results := make(chan string, 1)
	go func() {
		line, err := in.Request("Main Thread", "Name: ", ModeLine)
		if err != nil {
			t.Errorf("Request returned error: %v", err)
		}
		results <- line
	}()

	waitFor(t, "request to become active", in.IsRequesting)

	keys <- Key{Type: KeyRune, Rune: 'a'}
	keys <- Key{Type: KeyRune, Rune: 'b'}
	keys <- Key{Type: KeyBackspace}
	keys <- Key{Type: KeyRune, Rune: 'c'}
	keys <- Key{Type: KeyEnter}

	if got := <-results; got != "ac" {
		t.Errorf("RequestLine result = %q, want %q", got, "ac")
	}
	if in.IsRequesting() {
		t.Error("input still requesting after completion")
	}
}

func TestSecretModeMasksDisplayRetainsText(t *testing.T) {
	in, keys := newTestInput()

	results := make(chan string, 1)
	go func() {
		secret, err := in.Request("Server Thread", "Password // ", ModeSecret)
		if err != nil {
			t.Errorf("Request returned error: %v", err)
		}
		results <- secret
	}()

	waitFor(t, "request to become active", in.IsRequesting)

	keys <- Key{Type: KeyRune, Rune: 'a'}
	keys <- Key{Type: KeyRune, Rune: 'b'}
	keys <- Key{Type: KeyRune, Rune: 'c'}
	keys <- Key{Type: KeyBackspace}

	waitFor(t, "buffer to settle at two masks", func() bool {
		return in.Snapshot().Buffer == "**"
	})

	keys <- Key{Type: KeyEnter}
	if got := <-results; got != "ab" {
		t.Errorf("secret = %q, want %q", got, "ab")
	}
}

func TestStaleKeysNeverLeakIntoNewRequest(t *testing.T) {
	in, keys := newTestInput()

	// Keys that arrived before any request existed.
	keys <- Key{Type: KeyRune, Rune: 'z'}
	keys <- Key{Type: KeyRune, Rune: 'z'}
	keys <- Key{Type: KeyEnter}

	results := make(chan string, 1)
	go func() {
		line, _ := in.Request("Main Thread", "> ", ModeLine)
		results <- line
	}()

	waitFor(t, "request to become active", in.IsRequesting)

	keys <- Key{Type: KeyRune, Rune: 'x'}
	keys <- Key{Type: KeyEnter}

	if got := <-results; got != "x" {
		t.Errorf("result = %q, want %q (stale input leaked)", got, "x")
	}
}

func TestAckModeDiscardsEverythingButEnter(t *testing.T) {
	in, keys := newTestInput()

	done := make(chan error, 1)
	go func() {
		_, err := in.Request("Main Thread", "Press enter", ModeAck)
		done <- err
	}()

	waitFor(t, "request to become active", in.IsRequesting)

	keys <- Key{Type: KeyRune, Rune: 'n'}
	keys <- Key{Type: KeyRune, Rune: 'o'}
	keys <- Key{Type: KeyBackspace}

	select {
	case <-done:
		t.Fatal("ack request completed without Enter")
	case <-time.After(50 * time.Millisecond):
	}

	keys <- Key{Type: KeyEnter}
	if err := <-done; err != nil {
		t.Errorf("ack request error: %v", err)
	}
}

func TestRequestsSerialize(t *testing.T) {
	in, keys := newTestInput()

	first := make(chan string, 1)
	go func() {
		line, _ := in.Request("Main Thread", "first: ", ModeLine)
		first <- line
	}()
	waitFor(t, "first request active", in.IsRequesting)

	second := make(chan string, 1)
	go func() {
		line, _ := in.Request("Main Thread", "second: ", ModeLine)
		second <- line
	}()

	// The second request must not observe keys meant for the first.
	keys <- Key{Type: KeyRune, Rune: '1'}
	keys <- Key{Type: KeyEnter}
	if got := <-first; got != "1" {
		t.Fatalf("first result = %q, want %q", got, "1")
	}

	waitFor(t, "second request active", in.IsRequesting)
	keys <- Key{Type: KeyRune, Rune: '2'}
	keys <- Key{Type: KeyEnter}
	if got := <-second; got != "2" {
		t.Errorf("second result = %q, want %q", got, "2")
	}
}

func TestClosedKeyChannelFailsPendingRequest(t *testing.T) {
	in, keys := newTestInput()

	done := make(chan error, 1)
	go func() {
		_, err := in.Request("Main Thread", "> ", ModeLine)
		done <- err
	}()
	waitFor(t, "request active", in.IsRequesting)

	close(keys)
	if err := <-done; err == nil {
		t.Error("expected error after key channel closed, got nil")
	}
}
