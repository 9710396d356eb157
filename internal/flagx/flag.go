// Package flagx lets several components parse their own flags from the same
// os.Args without tripping over each other's unknown flags.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags together with their
// values, so a component's FlagSet never sees flags owned by another one.
//
// Recognised spellings:
//  1. Flag and value as two arguments:   -a :8080
//  2. Flag and value joined with '=':     -d=postgres://auth@db/auth
//
// Parameters:
//
//	args          the arguments to filter, normally os.Args[1:]
//	allowedFlags  flag names including dashes, e.g. []string{"-a", "-redis"}
//
// Returns:
//
//	The allowed flags in their original order, each followed by its value
//	when the value was given as a separate argument. Never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	// Set lookup for the allowed names.
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	// Empty rather than nil so callers can hand it straight to FlagSet.Parse.
	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "-name=value": the whole argument is kept or dropped as one unit.
		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		// "-name value": unknown flags and stray positionals are dropped.
		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)

		// The next argument is this flag's value unless it looks like a flag.
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++ // value consumed
		}
	}

	return filtered
}

// ConfigFileFlag returns the config file named on the command line.
func ConfigFileFlag() string {
	return ConfigFileFrom(os.Args[1:])
}

// ConfigFileFrom extracts the JSON config path given via -c, -config or
// --config. Other arguments are ignored, so this can run before the
// component parses its own flags.
//
// Parameters:
//
//	args  the arguments to search, normally os.Args[1:]
//
// Returns:
//
//	The path from the last occurrence, or "" when none is present or the
//	flag has no value.
func ConfigFileFrom(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	// Parse errors mean "no config file"; keep usage text off stderr.
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
