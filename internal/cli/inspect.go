package cli

import (
	"os"

	"github.com/spf13/cobra"

	"btreeidx/internal/config"
)

var (
	inspectHome     string
	inspectConfig   string
	inspectAttrOff  int
	inspectRelation string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <index-path>",
	Short: "Print a BFS dump of an index file's tree structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexPath := args[0]

		cfg, err := config.Load(inspectHome, inspectConfig)
		if err != nil {
			return err
		}
		ix, closeFile, err := openIndex(indexPath, inspectRelation, inspectAttrOff, "", cfg)
		if err != nil {
			return err
		}
		defer closeFile()

		return ix.DumpTo(os.Stdout)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectHome, "home", "", "override config home directory")
	inspectCmd.Flags().StringVar(&inspectConfig, "config", "", "override config file path")
	inspectCmd.Flags().IntVar(&inspectAttrOff, "attr-offset", 0, "byte offset of the indexed integer within a tuple")
	inspectCmd.Flags().StringVar(&inspectRelation, "relation", "", "relation name the index belongs to")
}
