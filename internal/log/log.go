package log

import (
	"io"
	"log/slog"

	"github.com/spf13/pflag"
)

type Level struct {
	p *slog.Level
}

func (l Level) String() string {
	return l.p.String()
}

func (l Level) Set(s string) error {
	return l.p.UnmarshalText([]byte(s))
}

func (l Level) Type() string {
	return "level"
}

// NewLogLevel binds a slog level to a command line flag.
func NewLogLevel(p *slog.Level, v slog.Level) pflag.Value {
	*p = v
	return Level{p: p}
}

// NewLogger builds the process logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
