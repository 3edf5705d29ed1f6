package repl

import (
	"sort"
	"strings"
)

// Completer suggests command lines for a typed prefix. Commands complete
// the first word; names complete the word after a command.
type Completer struct {
	commands []string
	names    func() []string
}

// NewCompleter creates a completer over the given command words. names,
// when set, is consulted on every call so it can reflect live state.
func NewCompleter(commands []string, names func() []string) *Completer {
	builtin := []string{"exit", "help", "history", "quit"}
	all := append(append([]string{}, commands...), builtin...)
	sort.Strings(all)
	return &Completer{commands: all, names: names}
}

// Complete returns completion suggestions for the given prefix.
func (c *Completer) Complete(prefix string) []string {
	cmd, rest, hasArg := strings.Cut(prefix, " ")
	if !hasArg {
		var out []string
		for _, candidate := range c.commands {
			if strings.HasPrefix(candidate, cmd) {
				out = append(out, candidate)
			}
		}
		return out
	}

	if c.names == nil || strings.Contains(rest, " ") {
		return nil
	}
	names := append([]string(nil), c.names()...)
	sort.Strings(names)

	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, rest) {
			out = append(out, cmd+" "+name)
		}
	}
	return out
}
