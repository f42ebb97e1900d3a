package config

import (
	"reflect"
	"strings"
	"sync"
)

// EnvMapping binds one environment variable to a koanf path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var (
	cachedMappings []EnvMapping
	mappingsOnce   sync.Once
)

// GenerateEnvMappings derives mappings from `env` tags. A struct field may
// carry `envPrefix`, which is prepended to the env tags of its children so
// the same struct type can appear under several keys.
func GenerateEnvMappings() []EnvMapping {
	mappingsOnce.Do(func() {
		cachedMappings = extractMappings(reflect.TypeOf(Config{}), "", "")
	})
	return cachedMappings
}

func extractMappings(t reflect.Type, pathPrefix, envPrefix string) []EnvMapping {
	var mappings []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		configPath := koanfTag
		if pathPrefix != "" {
			configPath = pathPrefix + "." + koanfTag
		}
		if envTag := field.Tag.Get("env"); envTag != "" && envTag != "-" {
			mappings = append(mappings, EnvMapping{EnvVar: envPrefix + envTag, ConfigPath: configPath})
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			childPrefix := envPrefix + field.Tag.Get("envPrefix")
			mappings = append(mappings, extractMappings(field.Type, configPath, childPrefix)...)
		}
	}
	return mappings
}

// GenerateEnvToConfigMap returns env var -> config path.
func GenerateEnvToConfigMap() map[string]string {
	mappings := GenerateEnvMappings()
	result := make(map[string]string, len(mappings))
	for _, m := range mappings {
		result[m.EnvVar] = m.ConfigPath
	}
	return result
}

// IsSensitiveConfigPath reports whether a path holds a secret.
func IsSensitiveConfigPath(configPath string) bool {
	return checkSensitiveField(reflect.TypeOf(Config{}), strings.Split(configPath, "."))
}

func checkSensitiveField(t reflect.Type, pathParts []string) bool {
	if len(pathParts) == 0 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("koanf") != pathParts[0] {
			continue
		}
		if len(pathParts) == 1 {
			return field.Type == reflect.TypeOf(SensitiveString("")) || field.Tag.Get("sensitive") == "true"
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			return checkSensitiveField(field.Type, pathParts[1:])
		}
	}
	return false
}
