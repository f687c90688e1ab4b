// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for optional .env files. Every package that needs
// settings declares its own Config struct with env tags; the binary loads
// them one by one at startup:
//
//	var httpCfg httpserver.Config
//	if err := config.Load(&httpCfg); err != nil {
//		return err
//	}
//
// Provider-specific settings can reuse one struct under different prefixes:
//
//	var prices billing.CatalogConfig
//	err := config.Load(&prices, config.WithPrefix("STRIPE_"))
//
// Nothing is cached between calls, so tests can change the environment with
// t.Setenv and load again. Failures wrap ErrParsingConfig.
package config
