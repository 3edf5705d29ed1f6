// Package config defines the records-cli configuration (~/.records/cli.yaml)
// and loads it through confloader, so flags override RECORDS_* environment
// variables, which override the file, which overrides the defaults.
package config
