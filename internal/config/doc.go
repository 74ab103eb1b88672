// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// A .env file next to the config file is loaded before expansion, so secrets
// (database password, source credentials) can stay out of the YAML.
//
// The heuristics section overrides the compiled sentiment, confirmation and
// anomaly tables. Overrides are merged over the defaults and validated at load.
package config
