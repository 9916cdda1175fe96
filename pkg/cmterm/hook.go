package cmterm

import (
	"github.com/sirupsen/logrus"
)

// LogrusHook mirrors logrus entries into a dashboard Log so process-level
// logging stays visible while the dashboard owns the terminal.
type LogrusHook struct {
	log    *Log
	levels []logrus.Level
}

// NewLogrusHook creates a hook that forwards every logrus level to log.
func NewLogrusHook(log *Log) *LogrusHook {
	return &LogrusHook{
		log:    log,
		levels: logrus.AllLevels,
	}
}

// Levels returns the logrus levels this hook handles.
func (h *LogrusHook) Levels() []logrus.Level {
	return h.levels
}

// Fire forwards one logrus entry, mapping logrus's levels onto the
// dashboard's closed set.
func (h *LogrusHook) Fire(entry *logrus.Entry) error {
	level := LevelInfo
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		level = LevelError
	case logrus.WarnLevel:
		level = LevelWarn
	}
	h.log.Append(level, entry.Message)
	return nil
}
