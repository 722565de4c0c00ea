package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagSearchPath string
	flagTopK       int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search an indexed codebase for code relevant to a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		defer log.Sync()

		out, err := searchCode(cfg, log, args[0], flagSearchPath, flagTopK)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchPath, "path", ".", "codebase root directory")
	searchCmd.Flags().IntVar(&flagTopK, "top-k", 8, "number of results to return")
	rootCmd.AddCommand(searchCmd)
}
