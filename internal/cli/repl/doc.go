// Package repl implements the interactive shell of records-cli: a
// line-oriented loop that splits input into words and hands them to an
// Executor, with persistent history and word completion.
package repl
