package command

import (
	"strings"

	"github.com/rbright/dictum/internal/template"
)

// Sentence punctuation speech recognizers attach to utterances. It is ignored
// when matching verbs.
const recognizerPunctuation = ".,!?;"

var bareCommands = map[string]Command{
	"paste buffer":  PasteBuffer{},
	"undo paste":    UndoPaste{},
	"undo that":     Undo{},
	"redo that":     Redo{},
	"scratch that":  RemoveLastUnit{},
	"clear buffer":  ClearBuffer{},
	"show fields":   ShowUnfilledFields{},
	"period":        InsertFormatting{Mark: MarkPeriod},
	"comma":         InsertFormatting{Mark: MarkComma},
	"question mark": InsertFormatting{Mark: MarkQuestion},
	"colon":         InsertFormatting{Mark: MarkColon},
	"newline":       InsertFormatting{Mark: MarkLineBreak},
	"new line":      InsertFormatting{Mark: MarkLineBreak},
	"new paragraph": InsertFormatting{Mark: MarkParagraphBreak},
	"process note":  ProcessWithExtraction{},
}

var (
	setConnectors  = map[string]bool{"to": true, "is": true, "as": true}
	fillConnectors = map[string]bool{"with": true, "to": true}
)

// Parser classifies utterances. The zero value is usable and skips phonetic
// field matching.
type Parser struct {
	matcher *Matcher
}

// NewParser returns a Parser resolving misheard field names with m.
func NewParser(m *Matcher) *Parser {
	return &Parser{matcher: m}
}

// Parse classifies utterance without any known placeholder names.
func Parse(utterance string) Command {
	return (&Parser{}).Parse(utterance, nil)
}

// Parse classifies utterance. known lists the active macro's placeholder
// names and is used to resolve multi-word and misheard field names. Parse
// never fails: anything unrecognized is AppendText.
func (p *Parser) Parse(utterance string, known []string) Command {
	words := strings.Fields(strings.TrimRight(strings.TrimSpace(utterance), recognizerPunctuation+" \t\r\n"))
	if len(words) == 0 {
		return AppendText{Text: strings.TrimSpace(utterance)}
	}
	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
	}

	switch lower[0] {
	case "insert":
		if key := template.NormalizeKey(stripPunctuation(strings.Join(words[1:], " "))); key != "" {
			return LoadMacro{Key: key}
		}
	case "set":
		if cmd, ok := p.parseFill(words, lower, known, setConnectors, true); ok {
			return cmd
		}
	case "fill":
		if cmd, ok := p.parseFill(words, lower, known, fillConnectors, false); ok {
			return cmd
		}
	}

	if cmd, ok := bareCommands[strings.Join(strings.Fields(stripPunctuation(strings.Join(lower, " "))), " ")]; ok {
		return cmd
	}
	return AppendText{Text: strings.Join(strings.Fields(utterance), " ")}
}

// parseFill handles "set <field> to|is|as <value>" and
// "fill <field> [with|to] <value>". A set command requires a connector.
func (p *Parser) parseFill(words, lower, known []string, connectors map[string]bool, needConnector bool) (Command, bool) {
	if len(words) < 3 {
		return nil, false
	}

	if name, n := longestKnown(lower[1:], known); n > 0 {
		rest := 1 + n
		if rest < len(words) && connectors[lower[rest]] {
			rest++
		} else if needConnector {
			rest = -1
		}
		if rest > 0 && rest < len(words) {
			return FillField{Field: name, Value: strings.Join(words[rest:], " ")}, true
		}
	}

	connector := -1
	for i := 2; i < len(lower)-1; i++ {
		if connectors[lower[i]] {
			connector = i
			break
		}
	}

	switch {
	case connector > 0:
		spoken := strings.Join(lower[1:connector], " ")
		return FillField{Field: p.resolveField(spoken, known), Value: strings.Join(words[connector+1:], " ")}, true
	case !needConnector:
		return FillField{Field: p.resolveField(lower[1], known), Value: strings.Join(words[2:], " ")}, true
	default:
		return nil, false
	}
}

// resolveField maps a spoken field phrase to a placeholder name: a phonetic
// match against known names when available, otherwise the phrase itself in
// placeholder form.
func (p *Parser) resolveField(spoken string, known []string) string {
	if p.matcher != nil && len(known) > 0 {
		candidates := make([]string, len(known))
		for i, name := range known {
			candidates[i] = spokenForm(name)
		}
		if match, _, ok := p.matcher.Match(spoken, candidates); ok {
			for i, c := range candidates {
				if c == match {
					return known[i]
				}
			}
		}
	}
	return strings.Join(strings.Fields(spoken), "_")
}

// longestKnown returns the known placeholder whose spoken words prefix
// tokens, preferring the one with the most words.
func longestKnown(tokens, known []string) (string, int) {
	best, bestLen := "", 0
	for _, name := range known {
		parts := strings.Fields(spokenForm(name))
		if len(parts) == 0 || len(parts) <= bestLen || len(parts) > len(tokens) {
			continue
		}
		matched := true
		for i, part := range parts {
			if tokens[i] != part {
				matched = false
				break
			}
		}
		if matched {
			best, bestLen = name, len(parts)
		}
	}
	return best, bestLen
}

// spokenForm renders a placeholder name the way it is dictated.
func spokenForm(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(name, "_", " "))), " ")
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(recognizerPunctuation, r) {
			return -1
		}
		return r
	}, s)
}
