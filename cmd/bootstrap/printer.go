package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/config"
	"github.com/code-100-precent/LingVoice/pkg/logger"
)

// LogConfigInfo Print global configuration information
func LogConfigInfo() {
	logger.Info("system config load finished")
	logger.Info("global config",
		zap.String("server_name", config.GlobalConfig.Server.Name),
		zap.String("mode", config.GlobalConfig.Server.Mode),
		zap.String("addr", config.GlobalConfig.Server.Addr),
		zap.String("api_prefix", config.GlobalConfig.Server.APIPrefix),
	)

	logger.Info("base config",
		zap.String("db_driver", config.GlobalConfig.Database.Driver),
		zap.String("dsn", config.GlobalConfig.Database.DSN),
		zap.String("cache_type", config.GlobalConfig.Cache.Type),
	)

	logger.Info("log config",
		zap.String("log_level", config.GlobalConfig.Log.Level),
		zap.String("log_filename", config.GlobalConfig.Log.Filename),
		zap.Int("log_max_size", config.GlobalConfig.Log.MaxSize),
		zap.Int("log_max_age", config.GlobalConfig.Log.MaxAge),
		zap.Int("log_max_backups", config.GlobalConfig.Log.MaxBackups),
	)

	logger.Info("model config",
		zap.String("model_base_url", config.GlobalConfig.Model.BaseURL),
		zap.Int("model_dimension", config.GlobalConfig.Model.Dimension),
		zap.Duration("model_timeout", config.GlobalConfig.Model.Timeout),
	)

	logger.Info("enrollment config",
		zap.String("backend", config.GlobalConfig.Enrollment.Backend),
		zap.String("dir", config.GlobalConfig.Enrollment.Dir),
		zap.Int("dimension", config.GlobalConfig.Enrollment.Dimension),
	)

	logger.Info("matcher config",
		zap.String("metric", string(config.GlobalConfig.Matcher.Metric)),
		zap.Float64("epsilon", config.GlobalConfig.Matcher.Epsilon),
		zap.Float64("general_threshold", config.GlobalConfig.Matcher.GeneralThreshold),
	)

	logger.Info("clone config",
		zap.Bool("clone_enabled", config.GlobalConfig.Clone.Enabled),
		zap.String("synthesis_url", config.GlobalConfig.Clone.SynthesisURL),
		zap.String("textgen_url", config.GlobalConfig.Clone.TextGenURL),
	)
}

// PrintBannerFromFile Read file and print
func PrintBannerFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")

	colors := []string{
		"\x1b[38;5;165m",
		"\x1b[38;5;189m",
		"\x1b[38;5;207m",
		"\x1b[38;5;219m",
		"\x1b[38;5;225m",
		"\x1b[38;5;231m",
	}

	for i, line := range lines {
		color := colors[i%len(colors)]
		fmt.Println(color + line + "\x1b[0m")
	}
	return nil
}
