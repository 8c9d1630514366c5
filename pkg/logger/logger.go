package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger membungkus logrus.Logger supaya service tidak bergantung langsung ke logrus.
type Logger struct {
	*logrus.Logger
}

// New membuat logger JSON ke stdout. Level yang tidak dikenali jatuh ke info.
func New(level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// Discard dipakai di test.
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{Logger: log}
}

func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithQueue menandai entry log dengan id antrian.
func (l *Logger) WithQueue(idAntrian int64) *logrus.Entry {
	return l.Logger.WithField("id_antrian", idAntrian)
}
