package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"matdoctor/internal/integrity"
	"matdoctor/internal/store"
)

var diffJSON bool

var diffCmd = &cobra.Command{
	Use:   "diff <before.db> <after.db>",
	Short: "Compare two asset databases taken before and after a repair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		before, err := loadSnapshotFrom(args[0])
		if err != nil {
			return err
		}
		after, err := loadSnapshotFrom(args[1])
		if err != nil {
			return err
		}

		// The after database's index drives both diagnoses: it reflects the
		// textures available when the repair ran.
		st, err := store.Open(args[1])
		if err != nil {
			return err
		}
		idx, err := st.LoadTextureIndex()
		st.Close()
		if err != nil {
			return err
		}

		tables, err := LoadTables()
		if err != nil {
			return err
		}

		diff := integrity.DiffSnapshots(before, after, idx, tables)

		if diffJSON {
			return emitJSON(diff)
		}
		printDiff(diff)
		return nil
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(diffCmd)
}

func loadSnapshotFrom(path string) (*integrity.Snapshot, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	snap, err := st.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("loading graph from %s: %w", path, err)
	}
	return snap, nil
}

func printDiff(d *integrity.SnapshotDiff) {
	fmt.Printf("\n  Issues: %d -> %d  (critical %d -> %d)\n\n",
		d.IssuesBefore, d.IssuesAfter, d.CriticalBefore, d.CriticalAfter)

	if len(d.MaterialsAdded) > 0 {
		fmt.Printf("  Added materials:\n")
		for _, n := range d.MaterialsAdded {
			fmt.Printf("    + %s\n", n)
		}
	}
	if len(d.MaterialsRemoved) > 0 {
		fmt.Printf("  Removed materials:\n")
		for _, n := range d.MaterialsRemoved {
			fmt.Printf("    - %s\n", n)
		}
	}
	if len(d.MaterialsChanged) > 0 {
		fmt.Printf("  Changed materials:\n")
		for _, c := range d.MaterialsChanged {
			fmt.Printf("    ~ %s (%v)\n", c.Name, c.Fields)
		}
	}
	if len(d.SlotRebinds) > 0 {
		fmt.Printf("  Slot rebinds:\n")
		for _, r := range d.SlotRebinds {
			before := r.Before
			if before == "" {
				before = "<null>"
			}
			fmt.Printf("    %s[%d] %s -> %s\n", r.NodePath, r.SlotIndex, before, r.After)
		}
	}
	fmt.Println()
}
