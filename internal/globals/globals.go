// Package globals holds the one piece of process-wide mutable state this
// program needs: the active log level and program name, plus the logger
// built from them. Everything else is threaded explicitly.
package globals

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Log levels, in the same order and with the same meaning as the
// original loglevel scale: each level includes everything before it.
const (
	LLSilent = iota
	LLError
	LLOpenError
	LLNormal
	LLVerbose
)

// Settings is the injected process-wide record. There is exactly one
// instance in a running program (see New), passed down to anything that
// logs or needs the program name, rather than read from a package global.
type Settings struct {
	level    atomic.Int32
	ProgName string
	logger   *log.Logger
}

// New builds a Settings with the given program name and initial log
// level (one of the LL* constants), wired to a charmbracelet/log logger
// writing to stderr.
func New(progName string, level int) *Settings {
	s := &Settings{ProgName: progName}
	s.level.Store(int32(level))
	s.logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          progName,
	})
	s.applyLevel()
	return s
}

// SetLevel changes the active log level at runtime (e.g. in response to
// -v/-q/-s flags parsed after construction).
func (s *Settings) SetLevel(level int) {
	s.level.Store(int32(level))
	s.applyLevel()
}

// Level returns the currently active log level.
func (s *Settings) Level() int {
	return int(s.level.Load())
}

func (s *Settings) applyLevel() {
	switch s.Level() {
	case LLSilent:
		s.logger.SetLevel(log.Level(100))
	case LLError, LLOpenError:
		s.logger.SetLevel(log.ErrorLevel)
	case LLNormal:
		s.logger.SetLevel(log.InfoLevel)
	default:
		s.logger.SetLevel(log.DebugLevel)
	}
}

// Logf logs fmt-style at the given level, a direct analogue of the
// original's LOG_FMT macro: a no-op below the active level.
func (s *Settings) Logf(level int, format string, args ...any) {
	if s.Level() < level {
		return
	}
	switch {
	case level <= LLError:
		s.logger.Errorf(format, args...)
	case level == LLOpenError:
		s.logger.With("err_kind", "open").Errorf(format, args...)
	case level == LLNormal:
		s.logger.Infof(format, args...)
	default:
		s.logger.Debugf(format, args...)
	}
}

// Log is the no-format analogue of Logf.
func (s *Settings) Log(level int, msg string) {
	s.Logf(level, "%s", msg)
}
