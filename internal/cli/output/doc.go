// Package output renders records-cli results as a table, JSON or YAML.
//
// Records keep their attribute order in every format: table columns
// follow first assignment and JSON/YAML objects list "id" first.
package output
