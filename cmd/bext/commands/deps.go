package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bext/internal/core/domain"
)

func (c *CLI) newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps [path]",
		Short: "Show the resolved dependency table per Blender version and platform",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileName, _ := cmd.Flags().GetString("profile")
			profile, err := domain.ParseReleaseProfile(profileName)
			if err != nil {
				return err
			}

			report, err := c.app.Deps(cmd.Context(), projectPath(args), profile)
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringP("profile", "p", string(domain.ProfileRelease), "Release profile: release or dev")
	return cmd
}
