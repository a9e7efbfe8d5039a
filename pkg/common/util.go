package common

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

const (
	DefaultReadingsLimit int = 10
	MaxReadingsLimit     int = 1000
)

func IsTestEnv() bool {
	return testing.Testing()
}

func IsDevelopment() bool {
	return os.Getenv(EnvKeyGoEnv) == "development"
}

func IsProduction() bool {
	return os.Getenv(EnvKeyGoEnv) == "production"
}

// ParseLimit reads a bounded-count parameter from its leading integer, so
// "2.5" reads as 2 and "5abc" as 5. Missing, non-numeric and negative values
// fall back to DefaultReadingsLimit, large values are capped.
func ParseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	digits := strings.TrimPrefix(raw, "+")
	if strings.HasPrefix(digits, "-") {
		return DefaultReadingsLimit
	}
	end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		digits = digits[:end]
	}
	if digits == "" {
		return DefaultReadingsLimit
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// only overflow is left
		return MaxReadingsLimit
	}
	return min(n, MaxReadingsLimit)
}

func Reducer[T any, R any](items []T, reduceFn func(R, T) R, initAcc R) R {
	finalAcc := initAcc
	for i := 0; i < len(items); i++ {
		finalAcc = reduceFn(finalAcc, items[i])
	}
	return finalAcc
}
