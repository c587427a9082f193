package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the application logger. Release mode gets the JSON
// production config; everything else gets the human-readable
// development config.
func New() (*zap.Logger, error) {
	var cfg zap.Config
	if os.Getenv("GIN_MODE") == "release" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.FunctionKey = "func"

	return cfg.Build(zap.AddCaller())
}
