package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.RWMutex
	globalLogger = zap.NewNop()
)

// L returns the process-wide logger; a nop logger until Init runs.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Options selects sinks and encoding. Format is one of legacy, json, console.
type Options struct {
	Level   string
	Console bool
	Stream  io.Writer // console sink, os.Stderr when nil
	ToFile  bool
	File    string
	Format  string
	Caller  bool
}

// Defaults keeps stdout free for the interactive board: console logs go to
// stderr and are off unless asked for.
func Defaults() Options {
	return Options{
		Level:   "info",
		Console: false,
		ToFile:  true,
		File:    filepath.Join("logs", "checkers.log"),
		Format:  "legacy",
	}
}

// OptionsFromEnv overlays LOG_* variables on base.
func OptionsFromEnv(base Options) Options {
	o := base
	o.Level = getenvDefault("LOG_LEVEL", o.Level)
	o.Console = getenvBool("LOG_TO_CONSOLE", o.Console)
	o.ToFile = getenvBool("LOG_TO_FILE", o.ToFile)
	o.Caller = getenvBool("LOG_CALLER", o.Caller)
	o.Format = strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", o.Format)))
	o.File = strings.TrimSpace(getenvDefault("LOG_FILE", o.File))
	return o
}

// InitFromEnv initializes the global logger from Defaults and LOG_* variables.
func InitFromEnv() (func(), error) {
	return Init(OptionsFromEnv(Defaults()))
}

// Init builds a logger from o and installs it as L(). The returned func syncs
// and closes the file sink.
func Init(o Options) (func(), error) {
	logger, closeFn, err := New(o)
	if err != nil {
		return func() {}, err
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	return func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// New builds a logger without touching the global one.
func New(o Options) (*zap.Logger, func(), error) {
	level := parseLevel(o.Level)
	format := o.Format
	if format != "legacy" && format != "json" && format != "console" {
		format = "legacy"
	}

	closeFn := func() {}
	var cores []zapcore.Core
	if o.Console {
		stream := o.Stream
		if stream == nil {
			stream = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(stream), level))
	}
	if o.ToFile && strings.TrimSpace(o.File) != "" {
		if err := ensureDir(filepath.Dir(o.File)); err != nil {
			return nil, closeFn, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(o.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { _ = f.Close() }
		cores = append(cores, zapcore.NewCore(encoderFor(format), zapcore.AddSync(f), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), closeFn, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if o.Caller || format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, closeFn, nil
}

func encoderFor(format string) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig())
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		if strings.EqualFold(strings.TrimSpace(s), "warning") {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	}
	return lvl
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvBool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
