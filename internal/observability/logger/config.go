package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger.
type Config struct {
	// Env "prod" loguea JSON; cualquier otro valor, consola con colores.
	Env string
	// Level mínimo: debug, info, warn, error. Vacío = info.
	Level string
	// Origin se agrega como field "service" a todas las líneas.
	Origin string
}

// ParseLevel valida un nivel. Vacío es info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("logger: unknown level %q", s)
}

func zapConfig(env string) zap.Config {
	if strings.EqualFold(env, "prod") {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zc
	}
	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	zc.DisableStacktrace = true
	return zc
}

func build(cfg Config) *zap.Logger {
	// un nivel inválido ya lo rechazó config.Validate; acá cae a info
	level, _ := ParseLevel(cfg.Level)

	zc := zapConfig(cfg.Env)
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := zc.Build(zap.AddCaller())
	if err != nil {
		l = zap.NewExample()
	}
	if cfg.Origin != "" {
		l = l.With(zap.String("service", cfg.Origin))
	}
	return l
}
