package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// SetupLogger configures a logger from config: file output when "file" is
// one of config.Logging.Output, console output when "stdout" or "console"
// is listed or when no file output is configured, mirroring
// the teacher's SetupLogger (internal/common/logger.go).
func SetupLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	hasFile := false
	hasConsole := false
	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			hasFile = true
		case "stdout", "console":
			hasConsole = true
		}
	}

	if hasFile {
		logger = logger.WithFileWriter(writerConfig(config, models.LogWriterTypeFile, "citeflex.log"))
	}
	if hasConsole || !hasFile {
		logger = logger.WithConsoleWriter(writerConfig(config, models.LogWriterTypeConsole, ""))
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

func writerConfig(config *Config, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	timeFormat := "15:04:05.000"
	if config != nil && config.Logging.TimeFormat != "" {
		timeFormat = config.Logging.TimeFormat
	}

	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       timeFormat,
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024,
		MaxBackups:       3,
	}
}
