package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"btreeidx/btree"
	"btreeidx/internal/config"
)

var (
	scanHome     string
	scanConfig   string
	scanAttrOff  int
	scanRelation string
	scanLowOp    string
	scanHighOp   string
)

var scanCmd = &cobra.Command{
	Use:   "scan <index-path> <low> <high>",
	Short: "Run a bounded range scan over an existing index and print matching RIDs",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexPath := args[0]
		low, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("idxtool: parse low bound %q: %w", args[1], err)
		}
		high, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("idxtool: parse high bound %q: %w", args[2], err)
		}
		lowOp, err := parseLowOp(scanLowOp)
		if err != nil {
			return err
		}
		highOp, err := parseHighOp(scanHighOp)
		if err != nil {
			return err
		}

		cfg, err := config.Load(scanHome, scanConfig)
		if err != nil {
			return err
		}
		ix, closeFile, err := openIndex(indexPath, scanRelation, scanAttrOff, "", cfg)
		if err != nil {
			return err
		}
		defer closeFile()

		if err := ix.StartScan(int32(low), lowOp, int32(high), highOp); err != nil {
			return fmt.Errorf("idxtool: start scan: %w", err)
		}
		count := 0
		for {
			r, err := ix.ScanNext()
			if err == btree.ErrIndexScanCompleted {
				break
			}
			if err != nil {
				return fmt.Errorf("idxtool: scan next: %w", err)
			}
			fmt.Printf("rid: page=%d slot=%d\n", r.PageNumber, r.SlotNumber)
			count++
		}
		if err := ix.EndScan(); err != nil {
			return err
		}
		fmt.Printf("%d entries\n", count)
		return nil
	},
}

func parseLowOp(s string) (btree.Op, error) {
	switch s {
	case "gt":
		return btree.GT, nil
	case "gte":
		return btree.GTE, nil
	default:
		return 0, fmt.Errorf("idxtool: unrecognized low operator %q (want gt or gte)", s)
	}
}

func parseHighOp(s string) (btree.Op, error) {
	switch s {
	case "lt":
		return btree.LT, nil
	case "lte":
		return btree.LTE, nil
	default:
		return 0, fmt.Errorf("idxtool: unrecognized high operator %q (want lt or lte)", s)
	}
}

func init() {
	scanCmd.Flags().StringVar(&scanHome, "home", "", "override config home directory")
	scanCmd.Flags().StringVar(&scanConfig, "config", "", "override config file path")
	scanCmd.Flags().IntVar(&scanAttrOff, "attr-offset", 0, "byte offset of the indexed integer within a tuple")
	scanCmd.Flags().StringVar(&scanRelation, "relation", "", "relation name the index belongs to")
	scanCmd.Flags().StringVar(&scanLowOp, "low-op", "gte", "low bound operator: gt or gte")
	scanCmd.Flags().StringVar(&scanHighOp, "high-op", "lte", "high bound operator: lt or lte")
}
