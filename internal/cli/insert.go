package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"btreeidx/internal/config"
	"btreeidx/internal/heap"
	"btreeidx/internal/page"
)

var (
	insertHome       string
	insertConfig     string
	insertAttrOff    int
	insertRelation   string
	insertRIDPage    uint32
	insertRIDSlot    uint16
)

var insertCmd = &cobra.Command{
	Use:   "insert <index-path> <key>",
	Short: "Insert a single (key, rid) entry into an existing index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexPath := args[0]
		key, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("idxtool: parse key %q: %w", args[1], err)
		}

		cfg, err := config.Load(insertHome, insertConfig)
		if err != nil {
			return err
		}

		ix, closeFile, err := openIndex(indexPath, insertRelation, insertAttrOff, "", cfg)
		if err != nil {
			return err
		}
		defer closeFile()

		rid := heap.RID{PageNumber: page.Num(insertRIDPage), SlotNumber: insertRIDSlot}
		if err := ix.InsertEntry(int32(key), rid); err != nil {
			return fmt.Errorf("idxtool: insert entry: %w", err)
		}
		return ix.Close()
	},
}

func init() {
	insertCmd.Flags().StringVar(&insertHome, "home", "", "override config home directory")
	insertCmd.Flags().StringVar(&insertConfig, "config", "", "override config file path")
	insertCmd.Flags().IntVar(&insertAttrOff, "attr-offset", 0, "byte offset of the indexed integer within a tuple")
	insertCmd.Flags().StringVar(&insertRelation, "relation", "", "relation name the index belongs to")
	insertCmd.Flags().Uint32Var(&insertRIDPage, "rid-page", 0, "page number of the record locator")
	insertCmd.Flags().Uint16Var(&insertRIDSlot, "rid-slot", 0, "slot number of the record locator")
}
