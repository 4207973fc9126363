package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandOpen     Command = "open"
	CommandRecord   Command = "record"
	CommandStop     Command = "stop"
	CommandPlay     Command = "play"
	CommandImage    Command = "image"
	CommandDrop     Command = "drop"
	CommandClear    Command = "clear"
	CommandDiagnose Command = "diagnose"
	CommandReply    Command = "reply"
	CommandStatus   Command = "status"
	CommandClose    Command = "close"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// validCommands maps each command to whether it takes path arguments.
var validCommands = map[Command]bool{
	CommandOpen:     false,
	CommandRecord:   false,
	CommandStop:     false,
	CommandPlay:     false,
	CommandImage:    true,
	CommandDrop:     true,
	CommandClear:    false,
	CommandDiagnose: false,
	CommandReply:    false,
	CommandStatus:   false,
	CommandClose:    false,
	CommandDevices:  false,
	CommandDoctor:   false,
	CommandVersion:  false,
	CommandHelp:     false,
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
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
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			takesPaths, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest := args[i+1:]
			if !takesPaths {
				if len(rest) > 0 {
					return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
				}
				return parsed, nil
			}
			if len(rest) == 0 {
				return Parsed{}, fmt.Errorf("command %q requires at least one PATH", arg)
			}
			parsed.Args = append([]string(nil), rest...)
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [PATH...]

Commands:
  open      Open the diagnosis page (event loop, socket server, stdin console)
  record    Start recording from the microphone
  stop      Stop recording and keep the clip
  play      Play back the recorded clip
  image     Select an image file (PATH...; only the first is used)
  drop      Drop an image file (content must be an image)
  clear     Reset recording, image and results
  diagnose  Submit the recording and image for diagnosis
  reply     Play the audio reply of the last diagnosis
  status    Print page state
  close     Close the open page
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/arogya/config.yaml)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
