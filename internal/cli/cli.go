// Package cli parses dictum's command line. Flags precede the command; every
// word after `say` is dictation text.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe     Command = "serve"
	CommandSay       Command = "say"
	CommandToggle    Command = "toggle"
	CommandStop      Command = "stop"
	CommandCancel    Command = "cancel"
	CommandUndo      Command = "undo"
	CommandRedo      Command = "redo"
	CommandRender    Command = "render"
	CommandFields    Command = "fields"
	CommandPaste     Command = "paste"
	CommandUndoPaste Command = "undo-paste"
	CommandReload    Command = "reload"
	CommandStatus    Command = "status"
	CommandTemplates Command = "templates"
	CommandDevices   Command = "devices"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandServe:     {},
	CommandSay:       {},
	CommandToggle:    {},
	CommandStop:      {},
	CommandCancel:    {},
	CommandUndo:      {},
	CommandRedo:      {},
	CommandRender:    {},
	CommandFields:    {},
	CommandPaste:     {},
	CommandUndoPaste: {},
	CommandReload:    {},
	CommandStatus:    {},
	CommandTemplates: {},
	CommandDevices:   {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

// Forwarded reports whether the command is answered by the running owner.
func (c Command) Forwarded() bool {
	switch c {
	case CommandServe, CommandDevices, CommandDoctor, CommandVersion, CommandHelp:
		return false
	default:
		return true
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Text       string
	JSON       bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--json":
			parsed.JSON = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if path, ok := strings.CutPrefix(arg, "--config="); ok {
				if path == "" {
					return Parsed{}, errors.New("--config requires a path")
				}
				parsed.ConfigPath = path
				continue
			}
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if cmd == CommandTemplates {
				parsed.Text = strings.TrimSpace(strings.Join(args[i+1:], " "))
				return parsed, nil
			}
			if cmd == CommandSay {
				parsed.Text = strings.TrimSpace(strings.Join(args[i+1:], " "))
				if parsed.Text == "" {
					return Parsed{}, errors.New("say requires dictation text")
				}
				return parsed, nil
			}
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--json] <command>
  %[1]s [--config PATH] [--json] say TEXT...

Session:
  serve       Run the session owner in the foreground
  say TEXT    Submit one transcript as if it were spoken
  toggle      Start recording, or stop and apply the transcript
  stop        Stop recording and apply the transcript
  cancel      Discard the active recording or pending extraction

Document:
  undo        Revert the last document change
  redo        Reapply the last undone change
  render      Print the current document
  fields      List template fields with value, confidence, and source
  paste       Paste the document into the focused window
  undo-paste  Revert the most recent paste
  templates [KEY]
              List loaded template keys, or one template's fields
  reload      Re-read the template file

Other:
  status      Print owner state
  devices     List available input devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/dictum/config.jsonc)
  --json          Print JSON instead of text (forwarded commands, doctor, devices)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
