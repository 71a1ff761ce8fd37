// Package config provides configuration management for dagsys.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use; with
// no REDIS_ADDR the process runs entirely in memory.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
