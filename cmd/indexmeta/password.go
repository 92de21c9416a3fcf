package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redbco/redb-indexmeta/internal/config"
	"github.com/redbco/redb-indexmeta/pkg/keyring"
)

// passwordCmd manages the database password kept in the keyring
var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the database password stored in the keyring",
	Long: "Store or remove the database password used when database.keyring is enabled. " +
		"The entry is keyed by user, host, port and database name from the config file.",
}

var setPasswordCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the database password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		password, err := readPassword(fmt.Sprintf("Password for %s: ", cfg.Database.Account()))
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("password cannot be empty")
		}

		if err := keyring.OpenDefault().Set(cfg.Database.Account(), password); err != nil {
			return fmt.Errorf("failed to store password: %w", err)
		}
		fmt.Printf("password stored for %s\n", cfg.Database.Account())
		return nil
	},
}

var deletePasswordCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored database password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := keyring.OpenDefault().Delete(cfg.Database.Account()); err != nil {
			return fmt.Errorf("failed to delete password: %w", err)
		}
		fmt.Printf("password removed for %s\n", cfg.Database.Account())
		return nil
	},
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
