package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// parseEnv overlays fields whose GOPHAUTH_* variable is set. Unset
// variables leave the current value alone.
func parseEnv(config *Config) error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	return nil
}
