package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wago-dev/wdx/pkg/cli"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Short:   "List registered devices",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := app.proxy.GetAllDevices()
		if err != nil {
			return fmt.Errorf("listing devices: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(devices)
		}

		t := cli.NewTable("DEVICE", "HEAD STATION")
		for _, d := range devices {
			headStation := "no"
			if d.IsHeadstation() {
				headStation = "yes"
			}
			t.Row(d.String(), headStation)
		}
		t.Flush()
		return nil
	},
}
