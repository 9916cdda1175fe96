package cmterm

import (
	"os"

	"github.com/muesli/cancelreader"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Device is the terminal surface the Manager drives: size queries, full-frame
// repaints with cursor control, and cancellable raw key reads. Nothing else
// of the terminal is required.
type Device interface {
	Size() (Size, error)
	Paint(Frame) error
	ReadKeys(p []byte) (int, error)
	CancelRead() bool
	Close() error
}

// Screen is the real-terminal Device: raw-mode keyboard reads on stdin,
// frame painting on stderr.
type Screen struct {
	out      *termenv.Output
	outFd    int
	inFd     int
	reader   cancelreader.CancelReader
	rawState *term.State
}

// NewScreen puts stdin into raw mode and prepares stderr for painting. Close
// must be called to restore the terminal.
func NewScreen() (*Screen, error) {
	reader, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return nil, errors.Wrap(err, "create terminal key reader")
	}

	inFd := int(os.Stdin.Fd())
	rawState, err := term.MakeRaw(inFd)
	if err != nil {
		reader.Cancel()
		return nil, errors.Wrap(err, "enter terminal raw mode")
	}

	return &Screen{
		out:      termenv.NewOutput(os.Stderr),
		outFd:    int(os.Stderr.Fd()),
		inFd:     inFd,
		reader:   reader,
		rawState: rawState,
	}, nil
}

// Size reports the current terminal extent.
func (s *Screen) Size() (Size, error) {
	w, h, err := term.GetSize(s.outFd)
	if err != nil {
		return Size{}, errors.Wrap(err, "query terminal size")
	}
	return Size{Rows: h, Columns: w}, nil
}

// Paint writes one full frame from the home position and places the cursor.
func (s *Screen) Paint(f Frame) error {
	s.out.ClearScreen()
	if _, err := s.out.WriteString(f.Content); err != nil {
		return errors.Wrap(err, "write frame")
	}
	if f.CursorVisible {
		s.out.MoveCursor(f.CursorRow, f.CursorCol)
		s.out.ShowCursor()
	} else {
		s.out.HideCursor()
	}
	return nil
}

// ReadKeys performs one blocking raw read of terminal input bytes. It
// returns cancelreader.ErrCanceled after CancelRead.
func (s *Screen) ReadKeys(p []byte) (int, error) {
	return s.reader.Read(p)
}

// CancelRead unblocks a pending ReadKeys.
func (s *Screen) CancelRead() bool {
	return s.reader.Cancel()
}

// Close restores cooked mode and cursor visibility.
func (s *Screen) Close() error {
	s.out.ShowCursor()
	return term.Restore(s.inFd, s.rawState)
}
