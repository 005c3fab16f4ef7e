package config

import (
	"fmt"
	"strings"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.Server.Addr == "" {
		add("server.addr", "must not be empty")
	}
	if c.Auth.Secret == "" {
		add("auth.secret", "must be set")
	} else if len(c.Auth.Secret) < 16 {
		add("auth.secret", "must be at least 16 characters")
	}
	if c.Auth.IdentitySecret == "" {
		add("auth.identity_secret", "must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		add("auth.token_ttl", "must be positive")
	}

	if c.Rewards.StartingCoins < 0 {
		add("rewards.starting_coins", "must not be negative")
	}
	if c.Rewards.AdReward <= 0 {
		add("rewards.ad_reward", "must be positive")
	}
	if c.Rewards.QuizReward <= 0 {
		add("rewards.quiz_reward", "must be positive")
	}
	if len(c.Rewards.CheckInReward) != 5 {
		add("rewards.checkin_rewards", "must list exactly 5 days")
	}
	for i, amount := range c.Rewards.CheckInReward {
		if amount <= 0 {
			add(fmt.Sprintf("rewards.checkin_rewards[%d]", i), "must be positive")
		}
	}
	if c.Rewards.TaskDelay < 0 {
		add("rewards.task_delay", "must not be negative")
	}

	if !validLevels[strings.ToUpper(c.Logging.Level)] {
		add("logging.level", "must be one of DEBUG, INFO, WARN, ERROR")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		add("logging.format", "must be json or text")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
