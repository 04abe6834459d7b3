package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hover-confirm/src/singleinstance"
)

type enabler interface {
	Enable(bool)
	Enabled() bool
	Toggle() bool
}

func stateWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

// controlHandler serves requests from `hoverzones ctl` inside the resident.
func controlHandler(e enabler, reload func() error, refresh func()) singleinstance.Handler {
	return func(cmd singleinstance.Command) (string, error) {
		switch cmd {
		case singleinstance.CmdEnable:
			e.Enable(true)
		case singleinstance.CmdDisable:
			e.Enable(false)
		case singleinstance.CmdToggle:
			e.Toggle()
		case singleinstance.CmdReload:
			if err := reload(); err != nil {
				return "", err
			}
		case singleinstance.CmdStatus:
			return stateWord(e.Enabled()), nil
		}
		if refresh != nil {
			refresh()
		}
		return stateWord(e.Enabled()), nil
	}
}

func newCtlCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:       "ctl enable|disable|toggle|status|reload",
		Short:     "Control the running hover resident",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"enable", "disable", "toggle", "status", "reload"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := singleinstance.ParseCommand(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			reply, found, err := singleinstance.NewClient().Send(ctx, c)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no hover resident is running")
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(reply))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "How long to wait for the resident")
	return cmd
}
