package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Shell is an interactive REPL for ad-hoc parameter browsing over an
// already-connected frontend Proxy, mirroring cmd/newtron's own Shell:
// a command-name→handler map plus a persistent "current device" prompt.
type Shell struct {
	reader   *bufio.Reader
	commands map[string]func(args []string)
}

// NewShell returns a Shell dispatching against app's connected proxy.
func NewShell() *Shell {
	s := &Shell{reader: bufio.NewReader(os.Stdin)}
	s.commands = map[string]func(args []string){
		"devices": func([]string) { runDevicesCmd() },
		"get":     s.cmdGet,
		"set":     s.cmdSet,
		"invoke":  s.cmdInvoke,
		"device":  s.cmdDevice,
		"help":    func([]string) { s.cmdHelp() },
		"?":       func([]string) { s.cmdHelp() },
	}
	return s
}

// Run starts the interactive shell loop, reading lines until "exit"/"quit"
// or EOF.
func (s *Shell) Run() error {
	fmt.Printf("Connected to %s.\n", bold(app.socketPath))
	fmt.Println("Type 'help' for available commands.")

	for {
		fmt.Print(s.prompt())
		line, err := s.reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		switch args[0] {
		case "exit", "quit", "q":
			return nil
		default:
			if fn, ok := s.commands[args[0]]; ok {
				fn(args[1:])
			} else {
				fmt.Printf("unknown command: %s (type 'help' for commands)\n", args[0])
			}
		}
	}
}

func (s *Shell) prompt() string {
	device := app.device
	if device == "" {
		device = "0-0"
	}
	return fmt.Sprintf("wdx[%s]> ", device)
}

func (s *Shell) cmdDevice(args []string) {
	if len(args) == 0 {
		fmt.Printf("current device: %s\n", s.prompt())
		return
	}
	app.device = args[0]
	if app.settings != nil {
		app.settings.SetLastDevice(args[0])
		if err := app.settings.Save(); err != nil {
			fmt.Printf("warning: could not save device scope: %v\n", err)
		}
	}
}

func (s *Shell) cmdGet(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: get <path> [path...]")
		return
	}
	if err := getCmd.RunE(getCmd, args); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (s *Shell) cmdSet(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: set <path> <type:value>")
		return
	}
	if err := setCmd.RunE(setCmd, args); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (s *Shell) cmdInvoke(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: invoke <path> [name=type:value...]")
		return
	}
	if err := invokeCmd.RunE(invokeCmd, args); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (s *Shell) cmdHelp() {
	fmt.Println(`Commands:
  devices                           list registered devices
  device [<id>]                     show or set the current device scope
  get <path> [path...]              read parameter values
  set <path> <type:value>           write a parameter value
  invoke <path> [name=type:value]   invoke a method
  exit, quit                        leave the shell`)
}

func runDevicesCmd() {
	if err := devicesCmd.RunE(devicesCmd, nil); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive parameter browsing shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("shell requires an interactive terminal")
		}
		return NewShell().Run()
	},
}
