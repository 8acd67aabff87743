package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvOrDefault returns the environment variable value or fallback when it is empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// OverrideString sets *dst to the environment value when it is non-empty.
func OverrideString(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// OverrideInt parses a non-empty environment value into *dst.
func OverrideInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

// OverrideDuration parses a non-empty environment value such as "1m" into *dst.
func OverrideDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// OverrideList splits a non-empty comma separated environment value into *dst.
func OverrideList(key string, dst *[]string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
