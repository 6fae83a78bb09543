package cmd

import (
	"fmt"

	"github.com/josephlewis42/jobsh/core/cmdlist"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the commands run inside the shell process
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s DIR\tchange the working directory of the shell\n", cmdlist.ChangeDirectory)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
