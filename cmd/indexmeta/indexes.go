package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/redbco/redb-indexmeta/internal/indexdef"
)

// validateCmd checks the index definitions of the config file
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate index definitions",
	Long:  `Load the configuration and report every index definition or field that would be ignored.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, rej := range a.rejections {
			fmt.Printf("rejected %s\n", rej)
		}
		fmt.Printf("%d valid index definitions, %d rejections\n", a.defs.Len(), len(a.rejections))
		if len(a.rejections) > 0 {
			return fmt.Errorf("configuration contains invalid index definitions")
		}
		return nil
	},
}

// listCmd prints the registered indexes
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered indexes",
	Long:  `Display every valid index definition with its physical table and columns.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTABLE\tTYPE\tCOLUMNS")
		for _, info := range a.engine.Definitions() {
			kind := "composite"
			if info.IsSimple() {
				kind = "simple (" + info.Attribute + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.Table, kind, describeColumns(info.Definition))
		}
		return w.Flush()
	},
}

// planCmd prints the statements a reindex would run
var planCmd = &cobra.Command{
	Use:   "plan [index-name]",
	Short: "Show the SQL of a reindex without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		stmts, err := a.engine.Plan(args[0])
		if err != nil {
			return err
		}
		for _, s := range stmts {
			fmt.Printf("-- %s\n%s;\n", s.Step, s.SQL)
			if len(s.Args) > 0 {
				fmt.Printf("-- args: %q\n", s.Args)
			}
		}
		return nil
	},
}

func describeColumns(def indexdef.Definition) string {
	if def.IsSimple() {
		return strings.Join(def.Columns(), ", ")
	}
	parts := []string{indexdef.OwnerColumn}
	for _, f := range def.Fields {
		switch {
		case f.Kind == indexdef.KindIndex:
			parts = append(parts, f.Column+"*")
		case f.InitIfMissing:
			parts = append(parts, fmt.Sprintf("%s<%s+init", f.Column, f.SourceTable))
		default:
			parts = append(parts, fmt.Sprintf("%s<%s", f.Column, f.SourceTable))
		}
	}
	return strings.Join(parts, ", ")
}
