package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogLevelFromString converts string to LogLevel, defaulting to INFO
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// IsValidLevel reports whether level names a known log level
func IsValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return true
	}
	return false
}

// LogConfig represents logging configuration (matching the YAML structure)
type LogConfig struct {
	Level         string `yaml:"level"`
	EnableConsole bool   `yaml:"enable_console"`
	EnableFile    bool   `yaml:"enable_file"`
	LogFile       string `yaml:"log_file"`
	BufferSize    int    `yaml:"buffer_size"`
	LogDir        string `yaml:"log_dir"`
}

// InitializeFromConfig builds a logger from configuration and installs it
// as the global logger
func InitializeFromConfig(service string, logConfig LogConfig) (*Logger, error) {
	if logConfig.EnableFile && logConfig.LogDir != "" {
		if err := os.MkdirAll(logConfig.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logFile := logConfig.LogFile
	if logFile == "" && logConfig.EnableFile {
		logFile = fmt.Sprintf("%s.log", service)
		if logConfig.LogDir != "" {
			logFile = filepath.Join(logConfig.LogDir, logFile)
		}
	}

	logger := NewLogger(Config{
		Level:         LogLevelFromString(logConfig.Level),
		Service:       service,
		LogFile:       logFile,
		EnableConsole: logConfig.EnableConsole,
		EnableFile:    logConfig.EnableFile,
		BufferSize:    logConfig.BufferSize,
	})
	SetGlobalLogger(logger)

	return logger, nil
}

// Component names for structured logging
const (
	ComponentCache     = "cache"
	ComponentEviction  = "eviction"
	ComponentRetrieval = "retrieval"
	ComponentConfig    = "config"
	ComponentMain      = "main"
)

// Action names for structured logging
const (
	ActionStart      = "start"
	ActionStop       = "stop"
	ActionInsert     = "insert"
	ActionRemove     = "remove"
	ActionClear      = "clear"
	ActionEvict      = "evict"
	ActionTrigger    = "trigger"
	ActionRetrieve   = "retrieve"
	ActionValidation = "validation"
	ActionLoad       = "load"
	ActionCleanup    = "cleanup"
)
