// wdxctl - WDX device-parameter service client
//
// wdxctl is the frontend client for wdxd: it dials the frontend socket and
// exposes device/parameter browsing, reads, writes, and method invocation
// as a noun-verb CLI, plus an interactive shell for ad-hoc browsing.
//
// Examples:
//
//	wdxctl devices
//	wdxctl get power/voltage
//	wdxctl set power/voltage uint16:12
//	wdxctl invoke power/reset
//	wdxctl shell
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wago-dev/wdx/internal/ipc/driver"
	"github.com/wago-dev/wdx/internal/ipc/frontend"
	"github.com/wago-dev/wdx/internal/ipc/objectstore"
	"github.com/wago-dev/wdx/internal/ipc/transport"
	"github.com/wago-dev/wdx/pkg/cli"
	"github.com/wago-dev/wdx/pkg/config"
	"github.com/wago-dev/wdx/pkg/settings"
	"github.com/wago-dev/wdx/pkg/version"
)

// App holds CLI state shared across all commands.
type App struct {
	socketPath string
	device     string
	jsonOutput bool

	conn   *transport.Conn
	driver *driver.Driver
	proxy  *frontend.Proxy

	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "wdxctl",
	Short:         "WDX device-parameter service client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isVersionOrHelp(cmd) {
			return nil
		}
		return connect()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		disconnect()
		return nil
	},
}

func init() {
	prefs, err := settings.Load()
	if err != nil {
		prefs = &settings.Settings{}
	}
	app.settings = prefs

	rootCmd.PersistentFlags().StringVarP(&app.socketPath, "socket", "S", prefs.GetSocket(defaultFrontendSocket()), "frontend socket path")
	rootCmd.PersistentFlags().StringVarP(&app.device, "device", "d", prefs.GetDevice(), "device id (\"<collection>-<slot>\", default head station)")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", prefs.JSONOutput, "JSON output")

	rootCmd.AddCommand(devicesCmd, getCmd, setCmd, invokeCmd, shellCmd, versionCmd)
}

func defaultFrontendSocket() string {
	return filepath.Join(config.DefaultSocketDir, config.FrontendSocketName)
}

func isVersionOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version":
			return true
		}
	}
	return false
}

func connect() error {
	conn, err := transport.Dial(app.socketPath)
	if err != nil {
		return fmt.Errorf("connecting to wdxd frontend socket %s: %w", app.socketPath, err)
	}
	app.conn = conn
	app.driver = driver.New(conn, objectstore.New())
	go app.driver.Run(500 * time.Millisecond) // matches internal/ipc/server's poll cadence
	app.proxy = frontend.NewProxy(app.driver)
	return nil
}

func disconnect() {
	if app.driver != nil {
		app.driver.Stop()
	}
	if app.conn != nil {
		app.conn.Close()
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("wdxctl dev build")
		} else {
			fmt.Printf("wdxctl %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

// green/yellow/red/bold delegate to pkg/cli, matching cmd/newtron's own
// thin color wrappers.
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
