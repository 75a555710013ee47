package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/alokemajumder/rrweb-server/internal/pkg/context"
)

var Log = zerolog.Nop()

// Init reads LOG_LEVEL and LOG_FORMAT straight from the environment. It is
// used until the configuration has been loaded.
func Init() {
	InitWithWriter(os.Stdout)
}

func InitWithWriter(w io.Writer) {
	Setup(w, envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "console"))
}

// InitWithConfig replaces the global logger using loaded configuration.
func InitWithConfig(level, format string) {
	Setup(os.Stdout, level, format)
}

func Setup(w io.Writer, levelName, format string) {
	levelName = strings.TrimSpace(levelName)
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || levelName == "" {
		level = zerolog.InfoLevel
	}

	// "json" or "console"
	var base zerolog.Logger
	if strings.TrimSpace(format) == "json" {
		base = zerolog.New(w)
	} else {
		cw := zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
		if strings.TrimSpace(os.Getenv("LOG_COLOR")) == "0" {
			cw.NoColor = true
		}
		base = zerolog.New(cw)
	}

	l := base.With().Timestamp().Str("service", "rrweb-server").Logger().Level(level)
	if strings.TrimSpace(os.Getenv("LOG_CALLER")) == "1" {
		l = l.With().Caller().Logger()
	}

	Log = l
	zlog.Logger = l
}

// Ctx returns a logger carrying the request id when ctx has one.
func Ctx(ctx context.Context) *zerolog.Logger {
	if reqID := appCtx.GetRequestID(ctx); reqID != "" {
		l := Log.With().Str("request_id", reqID).Logger()
		return &l
	}
	return &Log
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
