package observability

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger はアプリ共通のlogrusロガーを作る。
// prodではJSON、それ以外は人が読みやすいテキスト形式。
// 解釈できないレベルはinfoにして警告を出す
func NewLogger(level string, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if env == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.WithField("log_level", level).Warn("unknown log level, using info")
		return logger
	}
	logger.SetLevel(lvl)
	return logger
}
