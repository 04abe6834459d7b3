package main

import (
	"fmt"
	"image"
	"io"

	"github.com/spf13/cobra"

	"hover-confirm/src/config"
	"hover-confirm/src/logutil"
	"hover-confirm/src/scale"
	"hover-confirm/src/zones"
)

type checkOptions struct {
	x, y           int
	pointSet       bool
	scaleX, scaleY float64
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the zones file and optionally match a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			closeLog := logutil.Setup(logutil.Options{Level: cfg.LogLevel, Quiet: !root.verbose})
			defer closeLog()
			opts.pointSet = cmd.Flags().Changed("x") || cmd.Flags().Changed("y")
			return checkZones(cmd.OutOrStdout(), cfg, *opts)
		},
	}
	cmd.Flags().IntVar(&opts.x, "x", 0, "Screen X coordinate to match")
	cmd.Flags().IntVar(&opts.y, "y", 0, "Screen Y coordinate to match")
	cmd.Flags().Float64Var(&opts.scaleX, "scale-x", 0, "Use this X scale instead of querying the display")
	cmd.Flags().Float64Var(&opts.scaleY, "scale-y", 0, "Use this Y scale instead of querying the display")
	return cmd
}

func checkZones(out io.Writer, cfg *config.Config, opts checkOptions) error {
	zf, err := config.LoadZones(cfg.ZonesFile)
	if err != nil {
		return err
	}
	ref := zf.ReferenceOr(cfg.Reference)

	ix := zones.NewIndex()
	epoch, skipped := ix.Reload(zf.Definitions())
	snap := ix.Snapshot()

	fmt.Fprintf(out, "zones file: %s (reference %dx%d, epoch %d)\n", cfg.ZonesFile, ref.X, ref.Y, epoch)
	for _, z := range snap.Zones {
		state := "enabled"
		if !z.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(out, "  %-16s action=%s priority=%d rects=%d %s\n", z.ID, z.ActionID, z.Priority, len(z.Rects), state)
	}
	for _, e := range skipped {
		fmt.Fprintf(out, "  skipped: %v\n", e)
	}

	f := scale.Factor{X: opts.scaleX, Y: opts.scaleY}
	if f.X <= 0 || f.Y <= 0 {
		f, err = scale.DisplayFunc(ref)()
		if err != nil {
			fmt.Fprintf(out, "scale: unavailable (%v), assuming 1.0\n", err)
			f = scale.Identity
		}
	}
	fmt.Fprintf(out, "scale: %.3f x %.3f\n", f.X, f.Y)

	if opts.pointSet {
		p := image.Pt(opts.x, opts.y)
		if m, ok := ix.Match(p, f); ok {
			fmt.Fprintf(out, "match %v: %s (action %s, rect %v)\n", p, m.ZoneID, m.ActionID, m.Rect)
		} else {
			fmt.Fprintf(out, "match %v: none\n", p)
		}
	}

	if len(skipped) > 0 {
		return fmt.Errorf("%d zone(s) skipped", len(skipped))
	}
	return nil
}
