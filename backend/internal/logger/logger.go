// Package logger builds the service's zap logger.
package logger

import (
	"fmt"
	"os"

	"patas-conectadas/backend/internal/config"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// atomicLevel is shared by every core so the level can change at runtime.
var atomicLevel = zap.NewAtomicLevel()

// Build returns a logger that writes below-error entries to stdout and errors
// to stderr. It also becomes the zap global.
func Build(cfg config.Logger) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logger level %q: %w", cfg.Level, err)
	}
	atomicLevel.SetLevel(lvl)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json", "":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown logger encoding %q", cfg.Encoding)
	}

	highPriority := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel && atomicLevel.Enabled(l)
	})
	lowPriority := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l < zapcore.ErrorLevel && atomicLevel.Enabled(l)
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lowPriority),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), highPriority),
	)
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(log)
	return log, nil
}

func Level() zapcore.Level {
	return atomicLevel.Level()
}

// SetLevel changes the level of every logger built by Build.
func SetLevel(level string) error {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(l)
	return nil
}

// WatchLevel re-reads logger.level whenever the config file changes. It is a
// no-op when no config file was loaded.
func WatchLevel(v *viper.Viper, log *zap.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := v.GetString("logger.level")
		if err := SetLevel(level); err != nil {
			log.Error("Couldn't parse level", zap.String("value", level), zap.Error(err))
			return
		}
		log.Info("Atomic level updated", zap.String("value", level), zap.String("file", e.Name))
	})
	v.WatchConfig()
}
