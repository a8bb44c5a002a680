package observe

import (
	"encoding/json"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"weather-dashboard/pkg/logger"
)

const (
	_sentryMaxErrorDepth        int           = 9
	_sentryFlushTimeout         time.Duration = 5 * time.Second
	_sentryServerRequestTimeout time.Duration = 5 * time.Second
)

// SentryHook is an io.Writer that receives zap JSON lines and forwards
// error-level entries to Sentry. Plug it into logger.NewZapLogger as an
// additional writer.
type SentryHook struct {
	appEnv  string
	appName string
	enabled bool
	l       *logger.Logger
}

func NewSentryHook(
	appEnv, appName string,
	maxErrorDepth int,
	isDebug bool,
	dsn string,
) *SentryHook {
	h := &SentryHook{
		appEnv:  appEnv,
		appName: appName,
	}
	if dsn == "" {
		return h
	}
	if maxErrorDepth == 0 {
		maxErrorDepth = _sentryMaxErrorDepth
	}
	sentryTransport := sentry.NewHTTPTransport()
	sentryTransport.Timeout = _sentryServerRequestTimeout
	if err := sentry.Init(
		sentry.ClientOptions{
			AttachStacktrace: true,
			Debug:            isDebug,
			Dsn:              dsn,
			Environment:      appEnv,
			MaxErrorDepth:    maxErrorDepth,
			ServerName:       appName,
			Transport:        sentryTransport,
		}); err != nil {
		log.Println("sentry init error: ", err.Error())
		return h
	}
	h.enabled = true
	return h
}

// Enabled reports whether events are actually shipped.
func (h *SentryHook) Enabled() bool {
	return h.enabled
}

func (*SentryHook) mapLevel(zl zapcore.Level) sentry.Level {
	switch zl {
	case zapcore.DebugLevel, zapcore.InvalidLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	case zapcore.DPanicLevel, zapcore.FatalLevel, zapcore.PanicLevel:
		return sentry.LevelFatal
	}

	return sentry.LevelDebug
}

type logLine struct {
	Level      string `json:"level"`
	AppName    string `json:"app_name"`
	AppEnv     string `json:"app_env"`
	CallerFile string `json:"caller_file"`
	CallerLine int    `json:"caller_line"`
	CallerFunc string `json:"caller_func"`
	Stack      string `json:"stack"`
	Message    string `json:"msg"`
	Error      string `json:"error"`
	Timestamp  string `json:"timestamp"`
}

// event converts a zap line into a Sentry event; nil means "do not send".
func (h *SentryHook) event(p []byte) (*sentry.Event, error) {
	t := logLine{}
	if err := json.Unmarshal(p, &t); err != nil {
		return nil, errors.Wrap(err, "[SentryHook] json.Unmarshal data")
	}
	level, err := zapcore.ParseLevel(t.Level)
	if err != nil {
		return nil, errors.Wrap(err, "[SentryHook] parse zap level")
	}
	if len(t.Message) == 0 || level < zapcore.ErrorLevel {
		return nil, nil
	}

	timestamp, err := time.Parse("2006-01-02T15:04:05.000Z07:00", t.Timestamp)
	if err != nil {
		timestamp = time.Now().UTC()
	}

	event := sentry.NewEvent()
	event.Extra["AppName"] = h.appName
	event.Environment = h.appEnv
	event.Level = h.mapLevel(level)
	event.Timestamp = timestamp
	event.Message = t.Message
	event.Extra["Error"] = t.Error
	event.Extra["CallerFile"] = t.CallerFile
	event.Extra["CallerLine"] = t.CallerLine
	event.Extra["CallerFunc"] = t.CallerFunc
	event.Extra["Stack"] = t.Stack
	event.Exception = append(event.Exception, sentry.Exception{
		Type:       t.Message,
		Value:      t.Error,
		Stacktrace: sentry.NewStacktrace(),
	})
	return event, nil
}

func (h *SentryHook) Write(p []byte) (n int, err error) {
	if !h.enabled {
		return len(p), nil
	}

	event, err := h.event(p)
	if err != nil {
		if h.l != nil {
			h.l.Warning("sentry hook dropped a log line", map[string]any{"err": err})
		} else {
			log.Println(err.Error())
		}
		return len(p), nil
	}
	if event != nil {
		sentry.CaptureEvent(event)
	}

	return len(p), nil
}

// Flush waits for buffered events to be delivered.
func (h *SentryHook) Flush() bool {
	if !h.enabled {
		return true
	}
	return sentry.Flush(_sentryFlushTimeout)
}

func (h *SentryHook) SetLogger(l *logger.Logger) {
	if l != nil {
		h.l = l
	}
}
