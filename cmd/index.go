package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a codebase for semantic search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		defer log.Sync()

		out, err := indexCodebase(cfg, log, args[0], flagForce)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "re-index all files even if unchanged")
	rootCmd.AddCommand(indexCmd)
}
