// Package config provides configuration management for the globe server.
//
// Configuration is loaded once from environment variables using the env package
// and then passed explicitly to the components that need it. Grafana URL,
// password and datasource UID have no defaults and must be set.
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
