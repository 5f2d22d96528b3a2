package indicator

import (
	"fmt"
	"os"
	"strings"

	"github.com/rbright/dictum/internal/command"
	"github.com/rbright/dictum/internal/session"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	recording  string
	processing string
	errorText  string
	codes      map[string]string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			recording:  "Recording…",
			processing: "Transcribing…",
			errorText:  "Dictation error",
			codes: map[string]string{
				"macro_not_found":    "Unknown template",
				"unknown_field":      "No such field in this template",
				"no_active_macro":    "Insert a template first",
				"history_underflow":  "Nothing to undo",
				"extraction_failure": "No fields extracted; fill them manually",
				"nothing_to_paste":   "Nothing to paste",
				"no_pending_paste":   "No paste to undo",
				"paste_failed":       "Paste failed; text is on the clipboard",
				"empty_transcript":   "No speech recognized",
			},
		}
	}
}

// outcomeText renders a short notification line for o.
func (m messages) outcomeText(o session.Outcome) string {
	if !o.OK {
		if o.Code == "history_underflow" && o.Command == command.KindRedo {
			return "Nothing to redo"
		}
		if text, ok := m.codes[o.Code]; ok {
			return text
		}
		if o.Message != "" {
			return o.Message
		}
		return m.errorText
	}

	switch {
	case len(o.Changed) > 0:
		return fmt.Sprintf("Filled %s", strings.Join(o.Changed, ", "))
	case o.Message != "":
		return o.Message
	default:
		return string(o.Command)
	}
}
