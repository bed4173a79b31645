package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	diagLog     zerolog.Logger
	diagWriter  *lumberjack.Logger
	historyFile *os.File
	logMu       sync.Mutex
	logReady    bool
	pid         int
	dir         string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: RECAP_LOG_PATH environment variable
	envPath := os.Getenv("RECAP_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	diagWriter = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "diagnostics_log.txt"),
		MaxSize:    10, // MB
		MaxBackups: 3,
	}

	historyPath := filepath.Join(dir, "recordings_log.txt")
	f, err := os.OpenFile(historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagWriter.Close()
		diagWriter = nil
		return err
	}
	historyFile = f

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagWriter,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagWriter != nil {
		diagWriter.Close()
		diagWriter = nil
	}
	if historyFile != nil {
		historyFile.Close()
		historyFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(userID, format string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("user", userID).
		Str("format", format).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("recordings", count).
		Msg("session_end")
}

func RecordingStart(device string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("device", device).Msg("recording_start")
}

func RecordingStop(durationS float64, path string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", durationS).
		Str("path", path).
		Msg("recording_stop")
}

func UploadDone(key string, sizeKB float64, ms int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("key", key).
		Float64("size_kb", sizeKB).
		Int64("upload_ms", ms).
		Msg("upload_done")
}

func ProcessingSubmitted(meetingID string, status int, ms int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("meeting_id", meetingID).
		Int("status", status).
		Int64("total_ms", ms).
		Msg("processing_submitted")
}

func FallbackScheduled(meetingID string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("meeting_id", meetingID).Msg("fallback_notification")
}

// RecordingHistory appends one line per finished recording to a plain text
// file next to the diagnostics log.
func RecordingHistory(path string, durationS float64) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%.0fs\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, durationS, path)
	historyFile.WriteString(line)
}
