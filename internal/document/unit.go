package document

import "strings"

// UnitKind distinguishes phrase units in the dictation buffer.
type UnitKind int

const (
	UnitText UnitKind = iota
	UnitPunctuation
	UnitLineBreak
	UnitParagraphBreak
)

func (k UnitKind) String() string {
	switch k {
	case UnitText:
		return "text"
	case UnitPunctuation:
		return "punctuation"
	case UnitLineBreak:
		return "line_break"
	case UnitParagraphBreak:
		return "paragraph_break"
	default:
		return "unknown"
	}
}

// Unit is one atomic piece of appended content.
type Unit struct {
	Kind UnitKind
	Text string
}

func Text(s string) Unit        { return Unit{Kind: UnitText, Text: strings.TrimSpace(s)} }
func Punctuation(s string) Unit { return Unit{Kind: UnitPunctuation, Text: s} }
func LineBreak() Unit           { return Unit{Kind: UnitLineBreak} }
func ParagraphBreak() Unit      { return Unit{Kind: UnitParagraphBreak} }

func (u Unit) valid() bool {
	switch u.Kind {
	case UnitText, UnitPunctuation:
		return u.Text != ""
	case UnitLineBreak, UnitParagraphBreak:
		return true
	default:
		return false
	}
}

// renderUnits joins text with single spaces, attaches punctuation to the
// preceding unit, and never puts a space after a break.
func renderUnits(units []Unit) string {
	var b strings.Builder
	afterBreak := false
	for _, u := range units {
		switch u.Kind {
		case UnitText:
			if b.Len() > 0 && !afterBreak {
				b.WriteByte(' ')
			}
			b.WriteString(u.Text)
			afterBreak = false
		case UnitPunctuation:
			b.WriteString(u.Text)
			afterBreak = false
		case UnitLineBreak:
			b.WriteString("\n")
			afterBreak = true
		case UnitParagraphBreak:
			b.WriteString("\n\n")
			afterBreak = true
		}
	}
	return b.String()
}
