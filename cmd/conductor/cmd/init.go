package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/conductor/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a .conductor.yaml with the default settings to the current
directory. Existing files are never overwritten.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := ".conductor.yaml"
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
