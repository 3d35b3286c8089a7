// Package logx is a small leveled, scoped logger used by the client and
// bootstrap resolver for retry/fallback/referral diagnostics. The object
// model never imports it; it stays pure data.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

type simpleLogger struct {
	mu    sync.Mutex
	lvl   Level
	scope []string
	lg    *log.Logger
}

// New builds a logger whose level is read from RDAP_LOG_LEVEL.
func New() Logger {
	return &simpleLogger{
		lvl: parseLevel(os.Getenv("RDAP_LOG_LEVEL")),
		lg:  log.New(os.Stderr, "", 0),
	}
}

func NewWithLevel(lvl Level) Logger {
	return &simpleLogger{lvl: lvl, lg: log.New(os.Stderr, "", 0)}
}

// NewSilent only surfaces errors; used by the CLI in non-verbose mode.
func NewSilent() Logger { return NewWithLevel(LevelError) }

func (s *simpleLogger) With(kv ...any) Logger {
	clone := *s
	clone.scope = append(append([]string{}, s.scope...), kvPairs(kv...)...)
	return &clone
}

func (s *simpleLogger) SetLevel(lvl Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lvl = lvl
}

func (s *simpleLogger) Debug(msg string, kv ...any) { s.log(LevelDebug, "DBG", msg, kv...) }
func (s *simpleLogger) Info(msg string, kv ...any)  { s.log(LevelInfo, "INF", msg, kv...) }
func (s *simpleLogger) Warn(msg string, kv ...any)  { s.log(LevelWarn, "WRN", msg, kv...) }

// taxonomyErr is implemented by error types that can contribute their own
// structured fields ahead of the bare error text — this module's
// *rdap.Error does, via LogFields, folding its Op/Kind/HTTPStatus/RetryAfter
// taxonomy into the line instead of leaving it buried in Error()'s free text.
// Defined as an interface so logx never has to import the rdap package.
type taxonomyErr interface{ LogFields() []any }

func (s *simpleLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	fields := []any{"error", err.Error()}
	if t, ok := err.(taxonomyErr); ok {
		fields = append(t.LogFields(), fields...)
	}
	s.log(LevelError, "ERR", "", append(fields, kv...)...)
}

func (s *simpleLogger) log(l Level, tag, msg string, kv ...any) {
	if l < s.lvl {
		return
	}
	ts := time.Now().Format("15:04:05")
	fields := append([]string{}, s.scope...)
	fields = append(fields, kvPairs(kv...)...)
	line := fmt.Sprintf("%s %s %s", ts, tag, msg)
	if strings.TrimSpace(msg) == "" && len(fields) > 0 {
		line = fmt.Sprintf("%s %s", ts, tag)
	}
	if len(fields) > 0 {
		line = fmt.Sprintf("%s %s", line, strings.Join(fields, " "))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lg.Println(line)
}

func kvPairs(kv ...any) []string {
	out := make([]string, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		k := kv[i]
		var v any = "(missing)"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		if d, ok := v.(time.Duration); ok {
			v = humanize.RelTime(time.Now(), time.Now().Add(d), "", "")
		}
		out = append(out, fmt.Sprintf("%v=%v", k, v))
	}
	return out
}

func parseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}
