package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scenes/pkg/dashboard"
	"github.com/vango-dev/scenes/pkg/variables"
)

func scanCmd() *cobra.Command {
	var (
		file     string
		dashPath string
		detail   bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [text...]",
		Short: "List the variables referenced by text or a dashboard",
		Long: `List the template variables referenced by text, a file, or every
panel of a dashboard definition.

Supported reference forms: $name, [[name]], [[name:format]], ${name},
${name.path}, ${name:format}.

Examples:
  scenes scan 'CPU on $host'
  scenes scan -f query.txt --detail
  scenes scan -d dashboard.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dashPath != "" {
				return scanDashboard(cmd, dashPath, asJSON)
			}

			texts := args
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				texts = append(texts, string(raw))
			}
			if len(texts) == 0 {
				return fmt.Errorf("nothing to scan: pass text, --file or --dashboard")
			}

			text := strings.Join(texts, "\n")
			if detail {
				return printReferences(cmd, variables.FindReferences(text), asJSON)
			}
			return printNames(cmd, variables.ExtractNames(text).Sorted(), asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Scan the contents of a file")
	cmd.Flags().StringVarP(&dashPath, "dashboard", "d", "", "Scan every panel of a dashboard definition")
	cmd.Flags().BoolVar(&detail, "detail", false, "Print every reference with its syntax, path and format")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

func scanDashboard(cmd *cobra.Command, path string, asJSON bool) error {
	d, err := dashboard.Load(path)
	if err != nil {
		return err
	}
	defer d.Close()

	deps := d.Dependencies()
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(cmd, deps)
	}
	for _, dep := range deps {
		fmt.Fprintf(out, "%s: %s\n", dep.Key, strings.Join(dep.Variables, ", "))
	}
	return nil
}

func printNames(cmd *cobra.Command, names []string, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, names)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func printReferences(cmd *cobra.Command, refs []variables.Reference, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, refs)
	}
	for _, ref := range refs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-8s path=%q format=%q\n", ref.Name, ref.Syntax, ref.FieldPath, ref.Format)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
