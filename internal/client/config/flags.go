package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// os.Args is filtered with flagx.FilterArgs so unrelated flags are ignored.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "per-request timeout")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
