package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/pkg/cli"
)

var getCmd = &cobra.Command{
	Use:   "get <path> [path...]",
	Short: "Read one or more parameter values by path",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := make([]addressing.ParameterInstancePath, len(args))
		for i, p := range args {
			paths[i] = addressing.ParameterInstancePath{ParameterPath: p, DevicePath: app.device}
		}

		entries, err := app.proxy.GetParametersByPath(paths)
		if err != nil {
			return fmt.Errorf("reading parameters: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}

		t := cli.NewTable("PATH", "VALUE", "STATUS")
		for _, e := range entries {
			t.Row(e.Path.ParameterPath, formatWireValue(e.Value), status.Code(e.Code).String())
		}
		t.Flush()
		return nil
	},
}
