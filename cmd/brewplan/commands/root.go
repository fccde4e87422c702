// Package commands implements the CLI commands for brewplan.
package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/brewplan/internal/app"
	"go.trai.ch/brewplan/internal/build"
)

const (
	defaultCacheDir = ".brewplan/cache"
	cacheDirEnv     = "BREWPLAN_CACHE_DIR"
)

// CLI represents the command line interface for brewplan.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "brewplan",
		Short:         "Compile package descriptors into deterministic build plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	cacheDir := os.Getenv(cacheDirEnv)
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug output")
	rootCmd.PersistentFlags().String("cache-dir", cacheDir, "Plan cache directory (env "+cacheDirEnv+")")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Resolve without reading or writing the plan cache")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.app.SetVerbose(verbose)
	}

	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newApplyCmd())
	rootCmd.AddCommand(c.newOptionsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
