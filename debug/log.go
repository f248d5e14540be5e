package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Enable starts debug logging to the given file (truncated). An empty path
// logs to ~/.config/go-midicv/debug.log.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "go-midicv", "debug.log")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	logger = newLogger(f, true)
	logger.Info("=== Debug logging started ===", "cat", "debug")

	return nil
}

// UseWriter routes logging to w (stderr for the daemon). Verbose enables
// debug records and source locations.
func UseWriter(w io.Writer, verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = true
	logger = newLogger(w, verbose)
	slog.SetDefault(logger)
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = false
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Logger returns the current structured logger
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a debug-level message under a category
func Log(category, format string, args ...any) {
	l := Logger()
	if !Enabled() {
		return
	}
	l.Debug(fmt.Sprintf(format, args...), "cat", category)
}

// Info, Warn and Error emit structured records with key/value attrs
func Info(category, msg string, attrs ...any) {
	Logger().Info(msg, append([]any{"cat", category}, attrs...)...)
}

func Warn(category, msg string, attrs ...any) {
	Logger().Warn(msg, append([]any{"cat", category}, attrs...)...)
}

func Error(category, msg string, attrs ...any) {
	Logger().Error(msg, append([]any{"cat", category}, attrs...)...)
}

// Enabled reports whether any sink is attached
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	}))
}

// closeFile must be called with mu held
func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}
