package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/scenes/pkg/dashboard"
)

func repeatCmd() *cobra.Command {
	var (
		dashPath    string
		payloadPath string
		editing     bool
		vars        map[string]string
	)

	cmd := &cobra.Command{
		Use:   "repeat",
		Short: "Repeat a dashboard's template panel for a payload",
		Long: `Build a dashboard, publish a panel data payload to it, and print
the rendered view as JSON.

The payload must be in the Done state for panels to be repeated.

Examples:
  scenes repeat -d dashboard.yaml -p payload.json
  scenes repeat -d dashboard.json -p payload.json --set host=web-2 --editing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dashboard.Load(dashPath, dashboard.WithEditing(editing))
			if err != nil {
				return err
			}
			defer d.Close()

			for name, value := range vars {
				if _, err := d.SetVariable(name, value); err != nil {
					return err
				}
			}

			if payloadPath != "" {
				if err := d.LoadData(payloadPath); err != nil {
					return err
				}
			}

			if err := writeJSON(cmd, d.Snapshot()); err != nil {
				return err
			}
			success(cmd.ErrOrStderr(), "%s", d)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dashPath, "dashboard", "d", "", "Dashboard definition (.json, .yaml)")
	cmd.Flags().StringVarP(&payloadPath, "payload", "p", "", "Panel data payload (.json)")
	cmd.Flags().BoolVar(&editing, "editing", false, "Render in edit mode")
	cmd.Flags().StringToStringVar(&vars, "set", nil, "Set a variable (name=value)")
	cmd.MarkFlagRequired("dashboard")

	return cmd
}
