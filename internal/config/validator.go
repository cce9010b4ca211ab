package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "poll.interval_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidThemes returns the list of valid TUI theme names
func ValidThemes() []string {
	return []string{"default", "monokai", "dracula", "nord"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBackend()...)
	errors = append(errors, c.validateRealtime()...)
	errors = append(errors, c.validatePoll()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateBackend validates the BackendConfig
func (c *Config) validateBackend() []ValidationError {
	var errors []ValidationError

	if c.Backend.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "backend.url",
			Value:   c.Backend.URL,
			Message: "cannot be empty",
		})
	} else if u, err := url.Parse(c.Backend.URL); err != nil || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "backend.url",
			Value:   c.Backend.URL,
			Message: "must be a valid URL with a host",
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, ValidationError{
			Field:   "backend.url",
			Value:   c.Backend.URL,
			Message: "scheme must be http or https",
		})
	}

	if c.Backend.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "backend.timeout_seconds",
			Value:   c.Backend.TimeoutSeconds,
			Message: "must be positive",
		})
	}

	const maxTimeoutSeconds = 600
	if c.Backend.TimeoutSeconds > maxTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "backend.timeout_seconds",
			Value:   c.Backend.TimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxTimeoutSeconds),
		})
	}

	return errors
}

// validateRealtime validates the RealtimeConfig
func (c *Config) validateRealtime() []ValidationError {
	var errors []ValidationError

	if c.Realtime.URL != "" {
		u, err := url.Parse(c.Realtime.URL)
		if err != nil || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "realtime.url",
				Value:   c.Realtime.URL,
				Message: "must be a valid URL with a host",
			})
		} else if u.Scheme != "ws" && u.Scheme != "wss" {
			errors = append(errors, ValidationError{
				Field:   "realtime.url",
				Value:   c.Realtime.URL,
				Message: "scheme must be ws or wss",
			})
		}
	}

	// 0 means no reconnect attempts, which is valid; negative is invalid
	if c.Realtime.ReconnectBudget < 0 {
		errors = append(errors, ValidationError{
			Field:   "realtime.reconnect_budget",
			Value:   c.Realtime.ReconnectBudget,
			Message: "must be non-negative (0 disables reconnection)",
		})
	}

	const maxReconnectBudget = 100
	if c.Realtime.ReconnectBudget > maxReconnectBudget {
		errors = append(errors, ValidationError{
			Field:   "realtime.reconnect_budget",
			Value:   c.Realtime.ReconnectBudget,
			Message: fmt.Sprintf("exceeds maximum of %d", maxReconnectBudget),
		})
	}

	if c.Realtime.DialTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "realtime.dial_timeout_seconds",
			Value:   c.Realtime.DialTimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errors
}

// validatePoll validates the PollConfig
func (c *Config) validatePoll() []ValidationError {
	var errors []ValidationError

	if c.Poll.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "poll.interval_seconds",
			Value:   c.Poll.IntervalSeconds,
			Message: "must be positive",
		})
	}

	const maxIntervalSeconds = 300
	if c.Poll.IntervalSeconds > maxIntervalSeconds {
		errors = append(errors, ValidationError{
			Field:   "poll.interval_seconds",
			Value:   c.Poll.IntervalSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxIntervalSeconds),
		})
	}

	return errors
}

// validateTUI validates the TUIConfig
func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.Theme != "" && !slices.Contains(ValidThemes(), c.TUI.Theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   c.TUI.Theme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes(), ", ")),
		})
	}

	if c.TUI.MaxConversationLines < 0 {
		errors = append(errors, ValidationError{
			Field:   "tui.max_conversation_lines",
			Value:   c.TUI.MaxConversationLines,
			Message: "must be non-negative",
		})
	}

	const maxConversationLinesLimit = 100000
	if c.TUI.MaxConversationLines > maxConversationLinesLimit {
		errors = append(errors, ValidationError{
			Field:   "tui.max_conversation_lines",
			Value:   c.TUI.MaxConversationLines,
			Message: fmt.Sprintf("exceeds maximum of %d", maxConversationLinesLimit),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
