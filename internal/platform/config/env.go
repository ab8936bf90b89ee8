// Package config parses GUESTCOMMS_-prefixed environment configuration and
// provides a shared fatal-exit helper for the command-line entry points.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from environment variables declared through `env`
// struct tags. Flags layered on top of the parsed values override them.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
