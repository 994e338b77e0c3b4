package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matdoctor/internal/integrity"
)

var (
	fixJSON   bool
	fixDryRun bool
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Plan repairs from a diagnosis and apply them as one batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, idx, tables, err := LoadPass()
		if err != nil {
			return err
		}

		diag := integrity.Diagnose(snap, idx, tables)
		patches, unresolved := integrity.PlanRepairs(snap, idx, diag, tables)

		if !fixDryRun {
			if err := st.ApplyPatches(patches); err != nil {
				st.Close()
				return fmt.Errorf("applying patches: %w", err)
			}
		}
		st.Close()

		// Report against the post-repair state so the exit code reflects
		// what actually remains.
		after := integrity.Apply(snap, patches, idx)
		afterDiag := integrity.Diagnose(after, idx, tables)

		report := FixReport{
			DiagnoseReport: newDiagnoseReport(afterDiag),
			DryRun:         fixDryRun,
			PatchesApplied: len(patches),
			Patches:        patches,
			Unresolved:     unresolved,
		}
		report.Pass = fixPass(fixDryRun, diag, afterDiag)
		if unresolved == nil {
			report.Unresolved = []integrity.IssueRecord{}
		}

		if fixJSON {
			if err := emitJSON(report); err != nil {
				return err
			}
		} else {
			printFix(report)
		}

		if !report.Pass {
			os.Exit(1)
		}
		return nil
	},
}

// fixPass decides the exit gate. A dry run changed nothing, so it gates on
// the database as it stands, not on the hypothetical post-fix snapshot.
func fixPass(dryRun bool, before, after *integrity.Diagnosis) bool {
	if dryRun {
		return before.CriticalCount() == 0
	}
	return after.CriticalCount() == 0
}

func init() {
	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "Output as JSON")
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "Plan and report patches without applying them")
	rootCmd.AddCommand(fixCmd)
}
