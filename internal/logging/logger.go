// Package logging provides category-based file logging for carf. The cockpit
// owns the terminal, so nothing here may write to stdout or stderr after
// Initialize; all output goes to a dated JSON log file under the state
// directory, through zap.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a carf subsystem. Each category gets a named zap logger so
// log lines can be filtered per subsystem.
type Category string

const (
	CategoryAPI     Category = "api"
	CategoryCockpit Category = "cockpit"
	CategoryHistory Category = "history"
	CategoryStream  Category = "stream"
	CategoryExport  Category = "export"
	CategoryConfig  Category = "config"
	CategoryMockAPI Category = "mockapi"
)

var (
	mu      sync.RWMutex
	root    *zap.Logger
	logPath string
)

// Initialize opens the dated log file under stateDir/logs and builds the
// shared zap core. Safe to call once at startup; Get calls before Initialize
// return a no-op logger.
func Initialize(stateDir string, debug bool) error {
	dir := filepath.Join(stateDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("carf-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)

	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		_ = root.Sync()
	}
	root = zap.New(core)
	logPath = path
	return nil
}

// Get returns the logger for a category. Before Initialize it returns a
// no-op logger, so packages can log unconditionally.
func Get(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return zap.NewNop()
	}
	return root.Named(string(category))
}

// Path returns the active log file path, or empty before Initialize.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}
