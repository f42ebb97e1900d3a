package config

import "context"

type ContextKey string

const ConfigCtxKey ContextKey = "config"

func ContextWithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ConfigCtxKey, cfg)
}

// FromContext returns the configuration attached to ctx, or nil.
func FromContext(ctx context.Context) *Config {
	if ctx == nil {
		return nil
	}
	if cfg, ok := ctx.Value(ConfigCtxKey).(*Config); ok {
		return cfg
	}
	return nil
}
