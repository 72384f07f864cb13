package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"taskboard/config"
)

// Setup builds the root log entry for env. When file is set, output is
// written there with size-based rotation instead of stdout.
func Setup(env string, file string) *logrus.Entry {
	log := logrus.New()

	var out io.Writer = os.Stdout
	if file != "" {
		out = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	log.SetOutput(out)

	switch env {
	case config.EnvLocal:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: file != "",
		})
		log.SetLevel(logrus.DebugLevel)
	case config.EnvDev:
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.WarnLevel)
	}

	return logrus.NewEntry(log)
}
