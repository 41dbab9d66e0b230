package runner

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

type placeholders struct {
	Tool       string
	Src        string
	Bin        string
	Dir        string
	ExtraFlags string
}

// buildCommand expands a command template into an argv slice.
// The template is shlex-split first so paths containing spaces survive
// substitution, then placeholders are replaced token by token.
// {extraFlags} expands to zero or more tokens and is dropped when empty.
func buildCommand(tpl string, ph placeholders) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("empty command template")
	}
	tokens, err := shlex.Split(tpl)
	if err != nil {
		return nil, fmt.Errorf("split template: %w", err)
	}

	argv := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch tok {
		case "{tool}":
			if ph.Tool == "" {
				return nil, fmt.Errorf("template requires a toolchain but none resolved")
			}
			argv = append(argv, ph.Tool)
		case "{src}":
			argv = append(argv, ph.Src)
		case "{bin}":
			argv = append(argv, ph.Bin)
		case "{dir}":
			argv = append(argv, ph.Dir)
		case "{extraFlags}":
			if strings.TrimSpace(ph.ExtraFlags) == "" {
				continue
			}
			flags, err := shlex.Split(ph.ExtraFlags)
			if err != nil {
				return nil, fmt.Errorf("split extra flags: %w", err)
			}
			argv = append(argv, flags...)
		default:
			argv = append(argv, tok)
		}
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command template produced no arguments")
	}
	return argv, nil
}
