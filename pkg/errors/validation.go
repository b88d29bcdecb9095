package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// ScenarioExtensions lists the file extensions a scenario may use.
var ScenarioExtensions = []string{".toml", ".yaml", ".yml", ".json"}

// ValidateFinite rejects NaN and infinite values for the named field.
func ValidateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidScenario, "%s must be a finite number, got %v", field, v)
	}
	return nil
}

// ValidateNonNegative rejects non-finite and negative values for the named field.
func ValidateNonNegative(field string, v float64) error {
	if err := ValidateFinite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return New(ErrCodeInvalidScenario, "%s cannot be negative, got %v", field, v)
	}
	return nil
}

// ValidateScenarioPath validates a scenario file path before it is opened.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Extension must be one of ScenarioExtensions
func ValidateScenarioPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "scenario path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "scenario path contains invalid characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range ScenarioExtensions {
		if ext == allowed {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported scenario format %q (want one of %s)", ext, strings.Join(ScenarioExtensions, ", "))
}

// ValidateAddr validates a listen address of the form host:port or :port.
func ValidateAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "listen address cannot be empty")
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "listen address %q must include a port", addr)
	}
	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "listen address %q has a non-numeric port", addr)
		}
	}
	return nil
}
