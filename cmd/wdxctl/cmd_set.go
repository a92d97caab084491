package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/ipc/frontend"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/pkg/cli"
)

var setDefer bool

var setCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Write one parameter value by path",
	Long: `Write one parameter value by path.

<value> is either a bare string (written as value.String) or a
"type:value" pair, e.g.:

  wdxctl set power/voltage uint16:12
  wdxctl set power/name string:boiler-1
  wdxctl set power/enabled boolean:true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		wv, err := parseWireValue(args[1])
		if err != nil {
			return fmt.Errorf("parsing value: %w", err)
		}

		results, err := app.proxy.SetParameterValuesByPath([]frontend.WritePathValueRequest{{
			Path:  addressing.ParameterInstancePath{ParameterPath: args[0], DevicePath: app.device},
			Value: wv,
			Defer: setDefer,
		}})
		if err != nil {
			return fmt.Errorf("writing parameter: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(results)
		}

		t := cli.NewTable("PATH", "STATUS")
		for _, r := range results {
			t.Row(r.Path.ParameterPath, status.Code(r.Code).String())
		}
		t.Flush()
		return nil
	},
}

func init() {
	setCmd.Flags().BoolVar(&setDefer, "defer", false, "defer provider notification (batched write)")
}
