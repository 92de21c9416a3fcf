package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// reindexCmd rebuilds one or all index tables
var reindexCmd = &cobra.Command{
	Use:   "reindex [index-name]",
	Short: "Rebuild index tables",
	Long:  `Drop, recreate and repopulate the table of one index, or of every index with --all.`,
	Args: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := a.withTimeout(ctx)
		defer cancel()

		if all, _ := cmd.Flags().GetBool("all"); all {
			return a.engine.ReindexAll(ctx)
		}
		if err := a.engine.Reindex(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("index %s rebuilt\n", args[0])
		return nil
	},
}

// dropCmd removes the table of an index
var dropCmd = &cobra.Command{
	Use:   "drop [index-name]",
	Short: "Drop the table of an index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.engine.Drop(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("index %s dropped\n", args[0])
		return nil
	},
}
