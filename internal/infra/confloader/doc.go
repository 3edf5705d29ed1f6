// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables (RECORDS_SECTION_KEY)
//  3. Configuration file (YAML)
//  4. Default values
//
// A missing configuration file is not an error; a malformed one is.
package confloader
