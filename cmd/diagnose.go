package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"matdoctor/internal/integrity"
)

var (
	diagnoseJSON bool
	diagnoseNode string
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run a read-only integrity pass and report the root cause",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, idx, tables, err := LoadPass()
		if err != nil {
			return err
		}
		st.Close()

		if diagnoseNode != "" {
			snap = snap.FilterToNode(diagnoseNode)
		}

		diag := integrity.Diagnose(snap, idx, tables)
		report := newDiagnoseReport(diag)

		if diagnoseJSON {
			if err := emitJSON(report); err != nil {
				return err
			}
		} else {
			printDiagnosis(report)
		}

		if !report.Pass {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "Output as JSON")
	diagnoseCmd.Flags().StringVar(&diagnoseNode, "node", "", "Scope the pass to this node path and its children")
	rootCmd.AddCommand(diagnoseCmd)
}
