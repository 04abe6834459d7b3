// Command hoverzones runs the hover-confirm resident and its tooling.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hover-confirm/src/config"
)

type rootOptions struct {
	zonesFile string
	pointer   string
	traceFile string
	verbose   bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &rootOptions{}
	return newRootCmd(opts).Execute()
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hoverzones",
		Short:         "Dwell-to-confirm hover zones",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.zonesFile, "zones", "", "Path to zones YAML file (overrides HOVER_ZONES_FILE)")
	cmd.PersistentFlags().StringVar(&opts.pointer, "pointer", "", "Pointer source: auto|hook|poll|win32")
	cmd.PersistentFlags().StringVar(&opts.traceFile, "trace", "", "Append a CBOR hover trace to this file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging to stderr")

	cmd.AddCommand(newRunCmd(opts), newCheckCmd(opts), newTraceCmd(), newCtlCmd())
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ZonesFileOverride:   o.zonesFile,
		PointerKindOverride: o.pointer,
		TraceFileOverride:   o.traceFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
