// Package config loads runtime configuration for the studymatch CLI.
//
// Sources & precedence
//
// Values are resolved in three steps, later steps overriding earlier ones:
//
//  1. LoadDefaults
//  2. a JSON file named with -c / -config
//  3. command-line flags (-a, -r, -f)
package config
