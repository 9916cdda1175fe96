package cmterm

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrInputClosed is returned by a blocked request when the terminal key
// stream shuts down underneath it. The caller decides whether to retry the
// surrounding operation.
var ErrInputClosed = errors.New("terminal input closed")

// RequestMode selects what a blocking input request collects.
type RequestMode int

const (
	// ModeLine collects a line of text terminated by Enter.
	ModeLine RequestMode = iota
	// ModeSecret collects a line while echoing mask characters; the real
	// characters are retained in a shadow buffer and never rendered.
	ModeSecret
	// ModeAck waits for Enter and discards everything else.
	ModeAck
)

const secretMask = '*'

// disabledPoll is how often a disabled channel re-checks its gate. Coarse on
// purpose: disabling is a yield-focus mechanism, not an interrupt.
const disabledPoll = time.Second

// inputState is the shared description of an in-progress request, snapshotted
// by the renderer under lock.
type inputState struct {
	requester string
	prompt    string
	buffer    []rune
	pos       int
}

// InputSnapshot is a render-time copy of an Input's visible state.
type InputSnapshot struct {
	Requester  string
	Prompt     string
	Buffer     string
	Pos        int
	Requesting bool
}

// Input is a prioritized, stateful endpoint for blocking user-input requests.
// At most one request is active at a time; concurrent callers serialize on
// the receive endpoint. While disabled, delivered keys are discarded rather
// than queued.
type Input struct {
	// recvMu guards the key receive endpoint: holding it is what makes a
	// request the single active one.
	recvMu sync.Mutex
	keys   chan Key

	mu    sync.Mutex
	state inputState

	requesting atomic.Bool
	disabled   atomic.Bool

	redraw chan<- struct{}
}

// NewInput wires an input endpoint to its raw key channel and the shared
// redraw trigger. The Manager owns both channels.
func NewInput(keys chan Key, redraw chan<- struct{}) *Input {
	return &Input{keys: keys, redraw: redraw}
}

// IsRequesting reports whether a request is currently active.
func (in *Input) IsRequesting() bool {
	return in.requesting.Load()
}

// SetDisabled gates key consumption. A disabled channel discards keys and
// polls the gate until re-enabled.
func (in *Input) SetDisabled(to bool) {
	in.disabled.Store(to)
}

// IsDisabled reports the disabled gate.
func (in *Input) IsDisabled() bool {
	return in.disabled.Load()
}

// Snapshot copies the visible request state for rendering.
func (in *Input) Snapshot() InputSnapshot {
	in.mu.Lock()
	defer in.mu.Unlock()
	return InputSnapshot{
		Requester:  in.state.requester,
		Prompt:     in.state.prompt,
		Buffer:     string(in.state.buffer),
		Pos:        in.state.pos,
		Requesting: in.IsRequesting(),
	}
}

// Request blocks the calling goroutine until the user completes the request
// with Enter, returning the collected text (empty for ModeAck). A second
// caller blocks until the first request finishes. Keys that arrived before
// the request began are drained and never leak into the result.
func (in *Input) Request(requester, prompt string, mode RequestMode) (string, error) {
	in.recvMu.Lock()
	defer in.recvMu.Unlock()

	// Consume everything queued from before this request existed.
	in.drain()

	in.mu.Lock()
	in.state = inputState{requester: requester, prompt: prompt}
	in.mu.Unlock()

	in.requesting.Store(true)
	in.requestRedraw()
	result, err := in.collect(mode)
	in.requesting.Store(false)
	in.requestRedraw()

	return result, err
}

func (in *Input) drain() {
	for {
		select {
		case _, ok := <-in.keys:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// collect runs the Requesting state machine until Enter.
func (in *Input) collect(mode RequestMode) (string, error) {
	var secret []rune

	for {
		in.waitEnabled()
		in.requestRedraw()

		key, ok := <-in.keys
		if !ok {
			return "", ErrInputClosed
		}
		if in.IsDisabled() {
			// The key landed while this channel had yielded focus.
			continue
		}

		switch key.Type {
		case KeyEnter:
			switch mode {
			case ModeSecret:
				return string(secret), nil
			case ModeAck:
				return "", nil
			default:
				in.mu.Lock()
				line := string(in.state.buffer)
				in.mu.Unlock()
				return line, nil
			}

		case KeyBackspace:
			if mode == ModeAck {
				continue
			}
			in.mu.Lock()
			if n := len(in.state.buffer); n > 0 {
				in.state.buffer = in.state.buffer[:n-1]
				in.state.pos--
				if mode == ModeSecret && len(secret) > 0 {
					secret = secret[:len(secret)-1]
				}
			}
			in.mu.Unlock()

		case KeyRune:
			if mode == ModeAck {
				continue
			}
			in.mu.Lock()
			if mode == ModeSecret {
				secret = append(secret, key.Rune)
				in.state.buffer = append(in.state.buffer, secretMask)
			} else {
				in.state.buffer = append(in.state.buffer, key.Rune)
			}
			in.state.pos++
			in.mu.Unlock()
		}
	}
}

func (in *Input) waitEnabled() {
	for in.IsDisabled() {
		time.Sleep(disabledPoll)
	}
}

// requestRedraw is a coalesced signal: an already-pending redraw absorbs it.
func (in *Input) requestRedraw() {
	select {
	case in.redraw <- struct{}{}:
	default:
	}
}
