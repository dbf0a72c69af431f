package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rocketscienceinc/tictactoe-undo/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New - JSON logger at the configured level. With log-file.path set, output goes to a rotating
// file instead of stdout; the returned closer releases it.
func New(conf *config.Config) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if conf.LogFile.Path != "" {
		file := &lumberjack.Logger{
			Filename:   conf.LogFile.Path,
			MaxSize:    conf.LogFile.MaxSize,
			MaxAge:     conf.LogFile.MaxAge,
			MaxBackups: conf.LogFile.MaxBackups,
			LocalTime:  true,
		}
		out, closer = file, file
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level(conf.LogLevel)})), closer
}

func level(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
