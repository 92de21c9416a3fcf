package main

import (
	"github.com/spf13/cobra"
)

// setupCommands initializes all commands and their flags
func setupCommands() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(planCmd)

	reindexCmd.Flags().Bool("all", false, "Rebuild every registered index")
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(dropCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)

	passwordCmd.AddCommand(setPasswordCmd)
	passwordCmd.AddCommand(deletePasswordCmd)
	rootCmd.AddCommand(passwordCmd)

	planCmd.ValidArgsFunction = indexNameCompletion
	reindexCmd.ValidArgsFunction = indexNameCompletion
	dropCmd.ValidArgsFunction = indexNameCompletion
}

// indexNameCompletion offers the index names registered in the config file.
func indexNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer a.Close()
	return a.defs.Names(), cobra.ShellCompDirectiveNoFileComp
}
