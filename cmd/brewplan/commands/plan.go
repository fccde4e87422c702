package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/brewplan/internal/app"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [descriptors...]",
		Short: "Resolve descriptors into build plans",
		Long: "Resolve descriptor files, directories or glob patterns into build plans.\n" +
			"Plans are printed in argument order; nothing is printed if any resolution fails.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			format, _ := cmd.Flags().GetString("format")
			return c.app.Plan(cmd.Context(), args, app.PlanOptions{
				ResolveOptions: resolveOptions(cmd),
				Format:         format,
			})
		},
	}
	addResolveFlags(cmd)
	cmd.Flags().StringP("format", "o", "text", "Output format: text or json")
	return cmd
}

func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("with", nil, "Enable a bool option (repeatable)")
	cmd.Flags().StringSlice("without", nil, "Disable a bool option (repeatable)")
	cmd.Flags().StringArray("option", nil, "Select an option as name=value, with-X, without-X or HEAD (repeatable)")
	cmd.Flags().StringArray("dep", nil, "Declare an installed dependency as name=prefix (repeatable)")
	cmd.Flags().Bool("head", false, "Build from the head source")
	cmd.Flags().Bool("build-from-source", false, "Never use a prebuilt bottle")
	cmd.Flags().String("os-tag", "", "Resolve for another bottle tag, e.g. el_capitan or x86_64_linux")
	cmd.Flags().String("compiler", "", "Resolve for another compiler, e.g. clang-7.3.0+703 or gcc-4.9")
}

func resolveOptions(cmd *cobra.Command) app.ResolveOptions {
	with, _ := cmd.Flags().GetStringSlice("with")
	without, _ := cmd.Flags().GetStringSlice("without")
	options, _ := cmd.Flags().GetStringArray("option")
	deps, _ := cmd.Flags().GetStringArray("dep")
	head, _ := cmd.Flags().GetBool("head")
	fromSource, _ := cmd.Flags().GetBool("build-from-source")
	osTag, _ := cmd.Flags().GetString("os-tag")
	compiler, _ := cmd.Flags().GetString("compiler")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	return app.ResolveOptions{
		With:            with,
		Without:         without,
		Options:         options,
		Deps:            deps,
		Head:            head,
		BuildFromSource: fromSource,
		OSTag:           osTag,
		Compiler:        compiler,
		CacheDir:        cacheDir,
		NoCache:         noCache,
	}
}
