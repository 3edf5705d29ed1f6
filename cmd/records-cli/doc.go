// Package main provides the entry point for records-cli.
//
// Usage:
//
//	records-cli --data ./app.db create location lat=52.37 long=4.895
//	records-cli --data ./app.db list gym --where time=25 -o json
//	records-cli --data ./app.db undo
//	records-cli --data ./app.db shell
package main
