package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hover-confirm/src/trace"
)

func newTraceCmd() *cobra.Command {
	var (
		zone  string
		kinds []string
	)
	cmd := &cobra.Command{
		Use:   "trace FILE",
		Short: "Print a recorded hover trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := trace.Filter{ZoneID: zone}
			for _, k := range kinds {
				kind, err := trace.ParseKind(k)
				if err != nil {
					return err
				}
				filter.Kinds = append(filter.Kinds, kind)
			}
			return dumpTrace(cmd.OutOrStdout(), args[0], filter)
		},
	}
	cmd.Flags().StringVar(&zone, "zone", "", "Only events for this zone")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only these event kinds (show,hide,dispatch,reject,stale,reload,enable,disable,shutdown)")
	return cmd
}

func dumpTrace(out io.Writer, path string, filter trace.Filter) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace %s: %w", path, err)
	}
	defer f.Close()

	events, err := trace.ReadAll(f, filter)
	for _, e := range events {
		fmt.Fprintln(out, e.String())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d event(s)\n", len(events))
	return nil
}
