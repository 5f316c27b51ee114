package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the global slog logger. Production logs JSON; every other
// environment logs text. level overrides the environment default when set.
func Setup(env, level string) {
	opts := &slog.HandlerOptions{Level: defaultLevel(env)}
	if level != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(level)); err == nil {
			opts.Level = parsed
		}
	}

	var handler slog.Handler
	if isProduction(env) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("Logger 초기화", "env", env, "level", opts.Level.Level().String())
}

func defaultLevel(env string) slog.Level {
	switch strings.ToLower(env) {
	case "local", "dev", "development":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isProduction(env string) bool {
	env = strings.ToLower(env)
	return env == "production" || env == "prod"
}
