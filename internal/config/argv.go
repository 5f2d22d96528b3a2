package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseCommand splits a shell-like command line into argv. Single and double
// quotes group words, a backslash escapes the next rune, and a leading `~/`
// on the program is expanded. A line starting with `#` is treated as unset.
func ParseCommand(raw string) (CommandConfig, error) {
	argv, err := splitArgv(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	if len(argv) > 0 {
		argv[0] = expandUserPath(argv[0])
	}
	return CommandConfig{Raw: strings.TrimSpace(raw), Argv: argv}, nil
}

func mustParseCommand(raw string) CommandConfig {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}

// String renders argv back into a line ParseCommand accepts.
func (c CommandConfig) String() string {
	parts := make([]string, 0, len(c.Argv))
	for _, arg := range c.Argv {
		if arg == "" || strings.ContainsFunc(arg, func(r rune) bool {
			return unicode.IsSpace(r) || strings.ContainsRune(`'"\#`, r)
		}) {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func splitArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			word.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	if escaped {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}
