package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/brewplan/internal/app"
)

func (c *CLI) newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <descriptor>",
		Short: "Resolve a descriptor and run its plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("workdir")
			artifacts, _ := cmd.Flags().GetString("artifacts")
			return c.app.Apply(cmd.Context(), args[0], app.ApplyOptions{
				ResolveOptions: resolveOptions(cmd),
				WorkDir:        workDir,
				ArtifactDir:    artifacts,
			})
		},
	}
	addResolveFlags(cmd)
	cmd.Flags().StringP("workdir", "C", "", "Directory the steps run in (default: current directory)")
	cmd.Flags().String("artifacts", "", "Directory holding the plan's downloaded inputs (default: workdir)")
	return cmd
}
