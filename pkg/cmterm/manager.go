package cmterm

import (
	"sync"
	"time"

	"github.com/muesli/cancelreader"
	"github.com/pkg/errors"
)

// keyBuffer bounds each Input's raw key channel. Stale keys are drained when
// a request begins, so keys dropped from a full idle channel are keys no
// request could ever have observed.
const keyBuffer = 64

// Manager composes the dashboard: two Logs over two priority-ordered Inputs,
// the coalesced redraw trigger, the raw key fan-out and the three long-lived
// goroutines that animate them.
type Manager struct {
	MainLog   *Log
	ServerLog *Log
	InputLow  *Input
	InputHigh *Input

	device  Device
	redraw  chan struct{}
	keyLow  chan Key
	keyHigh chan Key
}

// NewManager wires a dashboard onto device. The main log's input is the
// low-priority channel; the server log's input is the high-priority one that
// suppresses it while requesting.
func NewManager(device Device) *Manager {
	redraw := make(chan struct{}, 1)
	keyLow := make(chan Key, keyBuffer)
	keyHigh := make(chan Key, keyBuffer)

	inputLow := NewInput(keyLow, redraw)
	inputHigh := NewInput(keyHigh, redraw)

	return &Manager{
		MainLog:   NewLog("Main Thread", inputLow),
		ServerLog: NewLog("Server Thread", inputHigh),
		InputLow:  inputLow,
		InputHigh: inputHigh,
		device:    device,
		redraw:    redraw,
		keyLow:    keyLow,
		keyHigh:   keyHigh,
	}
}

// Handle controls a started dashboard: force a redraw, request a stop, and
// wait for the reclaimed Manager once all goroutines exit.
type Handle struct {
	redraw   chan<- struct{}
	stopOnce sync.Once
	stop     chan struct{}
	done     chan *Manager
}

// Redraw requests the next render pass happen as soon as possible. Coalesced:
// an already-pending trigger absorbs it.
func (h *Handle) Redraw() {
	select {
	case h.redraw <- struct{}{}:
	default:
	}
}

// Stop signals the dashboard to shut down. Safe to call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// Wait blocks until every dashboard goroutine has exited and returns the
// Manager, which still owns its Logs and Inputs.
func (h *Handle) Wait() *Manager {
	return <-h.done
}

// Start spawns the render loop, the key-read loop and the kill coordinator.
func (m *Manager) Start(redrawInterval time.Duration) *Handle {
	// Discard any triggers queued before the loops existed.
	for {
		select {
		case <-m.redraw:
			continue
		default:
		}
		break
	}

	h := &Handle{
		redraw: m.redraw,
		stop:   make(chan struct{}),
		done:   make(chan *Manager, 1),
	}

	renderKill := make(chan struct{})
	keyKill := make(chan struct{})
	renderDone := make(chan struct{})
	keyDone := make(chan struct{})

	go func() {
		defer close(renderDone)
		m.renderLoop(renderKill, redrawInterval)
	}()

	go func() {
		defer close(keyDone)
		m.keyLoop(keyKill)
	}()

	// Kill coordinator: join the key reader before the renderer, then hand
	// the Manager back. Key channels close only after the reader has exited
	// so the fan-out can never send on a closed channel.
	go func() {
		<-h.stop
		close(keyKill)
		m.device.CancelRead()
		<-keyDone
		close(m.keyLow)
		close(m.keyHigh)
		close(renderKill)
		<-renderDone
		h.done <- m
		close(h.done)
	}()

	return h
}

// renderLoop waits on the redraw trigger with the configured interval as a
// timeout, arbitrates input priority, and paints.
func (m *Manager) renderLoop(kill <-chan struct{}, interval time.Duration) {
	for {
		select {
		case <-m.redraw:
		case <-time.After(interval):
		case <-kill:
			return
		}

		// Sole arbitration between the priority levels: the low channel is
		// suppressed for exactly the frames where the high one is asking.
		m.InputLow.SetDisabled(m.InputHigh.IsRequesting())

		m.renderPass()

		select {
		case <-kill:
			return
		default:
		}
	}
}

// renderPass composes and paints one frame. Failure here means the terminal
// is gone; there is no degraded mode with a dead renderer.
func (m *Manager) renderPass() {
	size, err := m.device.Size()
	if err != nil {
		panic(errors.Wrap(err, "cmterm: terminal size query failed"))
	}
	frame := Compose(size, m.logs(), m.activeInput())
	if err := m.device.Paint(frame); err != nil {
		panic(errors.Wrap(err, "cmterm: render failed"))
	}
}

func (m *Manager) logs() []*Log {
	return []*Log{m.MainLog, m.ServerLog}
}

// activeInput picks the input endpoint shown in the input box: the
// high-priority channel whenever it is requesting.
func (m *Manager) activeInput() *Input {
	if m.InputHigh.IsRequesting() {
		return m.InputHigh
	}
	return m.InputLow
}

// keyLoop performs blocking key reads and fans every decoded key out to both
// Inputs. A read failure that is not our own cancellation means the terminal
// device is broken, which is fatal to the whole process.
func (m *Manager) keyLoop(kill <-chan struct{}) {
	buf := make([]byte, 256)
	for {
		n, err := m.device.ReadKeys(buf)
		if err != nil {
			if errors.Is(err, cancelreader.ErrCanceled) {
				return
			}
			m.MainLog.Errorf("terminal key read failed: %v", err)
			panic(errors.Wrap(err, "cmterm: terminal key read failed"))
		}

		for _, key := range parseKeys(buf[:n]) {
			m.fanOut(key)
		}

		select {
		case <-kill:
			return
		default:
		}
	}
}

func (m *Manager) fanOut(key Key) {
	for _, ch := range []chan Key{m.keyHigh, m.keyLow} {
		select {
		case ch <- key:
		default:
		}
	}
}
