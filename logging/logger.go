package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/sirupsen/logrus"
)

// Logger is usable before Init so packages and tests never see a nil logger.
var Logger = logrus.New()

// Init configures the global logger. appEnv "production" switches to JSON output.
// An empty logDir keeps output on stdout only.
func Init(level string, appEnv string, logDir string) error {
	return initLogger(level, appEnv, logDir, os.Stdout)
}

// InitFile is Init for the terminal client: log lines go to the log file only, so they
// never mix with command output.
func InitFile(level string, appEnv string, logDir string) error {
	return initLogger(level, appEnv, logDir, nil)
}

func initLogger(level string, appEnv string, logDir string, console io.Writer) error {
	Logger = logrus.New()

	appEnv = strings.ToLower(appEnv)

	//default environment is development
	if appEnv == "" {
		appEnv = "development"
	}
	if appEnv == "production" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Logger.SetLevel(parseLevel(level))

	if logDir == "" {
		if console == nil {
			console = io.Discard
		}
		Logger.SetOutput(console)
		return nil
	}

	currentDate := time.Now().Format("02_01_2006")
	logFileName := currentDate + ".log"
	fullPath := filepath.Join(logDir, logFileName)

	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	if console == nil {
		Logger.SetOutput(file)
		return nil
	}
	Logger.SetOutput(io.MultiWriter(console, file))
	return nil
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// FromContext returns an entry tagged with the request trace id.
func FromContext(ctx context.Context) *logrus.Entry {
	return Logger.WithField("trace_id", contextutil.TraceIDFromContext(ctx))
}
