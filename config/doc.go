// Package config loads and validates toolkit configuration.
//
// Configuration comes from a YAML file plus environment variables, with
// the environment winning. A .env file is loaded when present so local
// development does not need exported variables. Sections map onto the
// component config structs (logging, redis, retry, breaker, rate_limit,
// cache, guards), each of which applies its own defaults before
// struct-tag validation runs.
package config
