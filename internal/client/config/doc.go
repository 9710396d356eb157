// Package config loads runtime configuration for the gophauth CLI client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. GOPHAUTH_SERVER_ADDR and GOPHAUTH_REQUEST_TIMEOUT.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     address:port of the gophauth gRPC endpoint
//	-t duration   per-request timeout (e.g. "5s")
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "5s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
