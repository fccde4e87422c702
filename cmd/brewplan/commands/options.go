package commands

import "github.com/spf13/cobra"

func (c *CLI) newOptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options <descriptor>",
		Short: "List the options a descriptor declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			return c.app.Options(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringP("format", "o", "text", "Output format: text or json")
	return cmd
}
