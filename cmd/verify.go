package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"matdoctor/internal/integrity"
)

var verifyJSON bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-run the integrity pass and gate on zero critical issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, snap, idx, tables, err := LoadPass()
		if err != nil {
			return err
		}
		st.Close()

		pass, diag := integrity.Verify(snap, idx, tables)
		report := newDiagnoseReport(diag)

		if verifyJSON {
			if err := emitJSON(report); err != nil {
				return err
			}
		} else {
			printDiagnosis(report)
		}

		if !pass {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(verifyCmd)
}
