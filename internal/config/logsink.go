package config

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogWriter returns the sink the logger should write to: a rotating file
// via lumberjack when a log file path is configured, stderr otherwise.
func (c *Config) LogWriter() io.Writer {
	if c.Log.File == "" {
		return os.Stderr
	}
	maxSize := c.Log.MaxSizeMB
	if maxSize == 0 {
		maxSize = 100
	}
	maxBackups := c.Log.MaxBackups
	if maxBackups == 0 {
		maxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   c.Log.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
}
