package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/bext/internal/app"
	"go.trai.ch/bext/internal/core/domain"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Build the extension for every declared Blender version and platform",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileName, _ := cmd.Flags().GetString("profile")
			profile, err := domain.ParseReleaseProfile(profileName)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")

			archives, err := c.app.Run(cmd.Context(), projectPath(args), app.BuildOptions{
				Profile:   profile,
				OutputDir: output,
			})
			for _, archive := range archives {
				cmd.Println(archive)
			}
			return err
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output directory for packed archives (default \"dist\")")
	cmd.Flags().StringP("profile", "p", string(domain.ProfileRelease), "Release profile: release or dev")
	return cmd
}
