package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wago-dev/wdx/internal/addressing"
	"github.com/wago-dev/wdx/internal/status"
	"github.com/wago-dev/wdx/internal/value"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <path> [name=type:value...]",
	Short: "Invoke a method parameter by path",
	Long: `Invoke a method parameter by path, with in-arguments given as
name=type:value pairs:

  wdxctl invoke power/setLimit limit=uint16:80`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := parseNamedArgs(args[1:])
		if err != nil {
			return fmt.Errorf("parsing arguments: %w", err)
		}

		path := addressing.ParameterInstancePath{ParameterPath: args[0], DevicePath: app.device}
		out, code, err := app.proxy.InvokeMethodByPath(path, in)
		if err != nil {
			return fmt.Errorf("invoking method: %w", err)
		}

		if app.jsonOutput {
			rendered := make(map[string]json.RawMessage, len(out))
			for name, v := range out {
				b, err := v.GetJSON()
				if err != nil {
					return fmt.Errorf("encoding out-argument %s: %w", name, err)
				}
				rendered[name] = b
			}
			return json.NewEncoder(os.Stdout).Encode(map[string]any{"out": rendered, "code": code})
		}

		fmt.Printf("status: %s\n", status.Code(code))
		for name, v := range out {
			b, _ := v.GetJSON()
			fmt.Printf("  %s = %s\n", name, b)
		}
		return nil
	},
}

// parseNamedArgs parses a "name=type:value" argument list into a
// name→*value.Value map, the shape frontend.Proxy.InvokeMethodByPath
// expects for its in-arguments.
func parseNamedArgs(args []string) (map[string]*value.Value, error) {
	out := make(map[string]*value.Value, len(args))
	for _, arg := range args {
		name, spec, ok := splitOnce(arg, '=')
		if !ok {
			return nil, fmt.Errorf("expected name=type:value, got %q", arg)
		}
		wv, err := parseWireValue(spec)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		v, err := wv.Decode()
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func splitOnce(s string, sep byte) (before, after string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
