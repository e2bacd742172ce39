package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0664

// Build assembles a zerolog logger. Output defaults to stderr; stdout is
// reserved for the MCP stdio transport.
type Build struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

type Log struct {
	Logger zerolog.Logger
	file   *os.File
}

func New() *Build {
	return &Build{writer: os.Stderr, level: zerolog.InfoLevel}
}

func (b *Build) ToWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

// ToFile appends to path instead of the writer. Empty keeps the writer.
func (b *Build) ToFile(path string) *Build {
	b.path = path
	return b
}

// Level parses a level name; unknown names keep info.
func (b *Build) Level(name string) *Build {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil && lvl != zerolog.NoLevel {
		b.level = lvl
	}
	return b
}

func (b *Build) Make() (*Log, error) {
	out := &Log{}
	w := b.writer
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		out.file = f
		w = zerolog.SyncWriter(f)
	}
	out.Logger = zerolog.New(w).Level(b.level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file, if any.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
