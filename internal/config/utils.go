package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

// getEnvAs parses a trimmed variable with parse, keeping defaultVal when the
// variable is unset, blank or malformed.
func getEnvAs[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultVal
	}
	v, err := parse(value)
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvAsInt(key string, defaultVal int) int {
	return getEnvAs(key, defaultVal, strconv.Atoi)
}

func getEnvAsBool(key string, defaultVal bool) bool {
	return getEnvAs(key, defaultVal, parseBool)
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(value)
}

// getEnvAsDuration accepts Go durations ("1m30s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	return getEnvAs(key, defaultVal, parseDuration)
}

func parseDuration(value string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func getEnvAsStringSlice(key string, defaults []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaults
	}
	var filtered []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return defaults
	}
	return filtered
}
