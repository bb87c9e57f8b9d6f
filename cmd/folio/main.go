// Command folio serves and manages a folio site.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eringen/folio"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	envFile    string
	cfg        folio.Config
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Personal blog and portfolio server",
	Long: `folio serves a localized blog and portfolio with a contact form,
the TaskFlow board and an admin dashboard, backed by SQLite.

Configuration comes from an optional YAML file (--config) overlaid with
environment variables such as SITE_URL, ADMIN_PASSWORD or CONTACT_SENDER.
A .env file in the working directory is loaded first when present.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		var err error
		cfg, err = folio.LoadConfig(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.AddCommand(serveCmd, seedCmd, importCmd, newCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the folio version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
	},
}

func fail(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return err
}
