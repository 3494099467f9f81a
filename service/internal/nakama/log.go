package nakama

import (
	"io"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/sirupsen/logrus"
)

// runtimeHook forwards logrus entries to the Nakama runtime logger, which
// applies the server's own level and output settings.
type runtimeHook struct {
	logger runtime.Logger
}

func (h runtimeHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h runtimeHook) Fire(e *logrus.Entry) error {
	l := h.logger
	if len(e.Data) > 0 {
		fields := make(map[string]interface{}, len(e.Data))
		for k, v := range e.Data {
			fields[k] = v
		}
		l = l.WithFields(fields)
	}
	switch e.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		l.Error("%s", e.Message)
	case logrus.WarnLevel:
		l.Warn("%s", e.Message)
	case logrus.InfoLevel:
		l.Info("%s", e.Message)
	default:
		l.Debug("%s", e.Message)
	}
	return nil
}

// NewRuntimeLogger returns a logrus logger whose entries all go to logger.
func NewRuntimeLogger(logger runtime.Logger) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.TraceLevel)
	l.AddHook(runtimeHook{logger: logger})
	return l
}
