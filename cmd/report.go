package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"matdoctor/internal/integrity"
)

// DiagnoseReport is the structured result of a diagnose or verify run.
type DiagnoseReport struct {
	Timestamp   time.Time               `json:"timestamp"`
	Pass        bool                    `json:"pass"`
	Issues      []integrity.IssueRecord `json:"issues"`
	RootCause   integrity.RootCause     `json:"root_cause"`
	Remediation string                  `json:"remediation"`
}

// FixReport extends the diagnosis with what the repair pass did.
type FixReport struct {
	DiagnoseReport
	DryRun         bool                    `json:"dry_run,omitempty"`
	PatchesApplied int                     `json:"patches_applied"`
	Patches        []integrity.Patch       `json:"patches,omitempty"`
	Unresolved     []integrity.IssueRecord `json:"unresolved"`
}

func newDiagnoseReport(diag *integrity.Diagnosis) DiagnoseReport {
	return DiagnoseReport{
		Timestamp:   time.Now().UTC(),
		Pass:        diag.CriticalCount() == 0,
		Issues:      diag.Issues,
		RootCause:   diag.RootCause,
		Remediation: diag.Remediation,
	}
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDiagnosis(r DiagnoseReport) {
	status := "PASS"
	if !r.Pass {
		status = "FAIL"
	}
	critical := 0
	for _, is := range r.Issues {
		if is.Severity == integrity.SeverityCritical {
			critical++
		}
	}

	fmt.Printf("\n  Integrity: %s  (%d issues, %d critical)\n\n", status, len(r.Issues), critical)

	if len(r.Issues) > 0 {
		fmt.Println("  ISSUES")
		fmt.Println("  ────────────────────────────────────────")
		for _, is := range r.Issues {
			marker := " "
			if is.Severity == integrity.SeverityCritical {
				marker = "!"
			}
			fmt.Printf("  %s %s[%d] %s", marker, is.NodePath, is.SlotIndex, is.Kind)
			if is.MaterialName != "" {
				fmt.Printf(" (%s)", truncName(is.MaterialName, 40))
			}
			fmt.Println()
			if is.Detail != "" {
				fmt.Printf("      %s\n", is.Detail)
			}
		}
		fmt.Println()
	}

	fmt.Printf("  Root cause: %s\n", r.RootCause)
	fmt.Printf("  Remediation: %s\n\n", r.Remediation)
}

func printFix(r FixReport) {
	verb := "applied"
	if r.DryRun {
		verb = "planned"
	}
	fmt.Printf("\n  %d patch(es) %s, %d unresolved\n\n", r.PatchesApplied, verb, len(r.Unresolved))

	if len(r.Patches) > 0 {
		fmt.Println("  PATCHES")
		fmt.Println("  ────────────────────────────────────────")
		for _, p := range r.Patches {
			switch p.Op {
			case integrity.OpReplaceMaterial:
				fmt.Printf("  %s[%d] rebuild material %s\n", p.NodePath, p.SlotIndex, truncName(p.NewMaterial.Name, 40))
			case integrity.OpBindTexture:
				fmt.Printf("  %s[%d] bind %s -> %s.%s\n", p.NodePath, p.SlotIndex, truncName(p.TextureName, 40), truncName(p.MaterialName, 30), p.TextureProp)
			case integrity.OpSetBlend:
				fmt.Printf("  %s[%d] set %s blend=%s z_write=%v draw_order=%d\n", p.NodePath, p.SlotIndex, truncName(p.MaterialName, 30), p.Blend, p.ZWrite, p.DrawOrder)
			}
		}
		fmt.Println()
	}

	if len(r.Unresolved) > 0 {
		fmt.Println("  UNRESOLVED")
		fmt.Println("  ────────────────────────────────────────")
		for _, is := range r.Unresolved {
			fmt.Printf("  %s[%d] %s: %s\n", is.NodePath, is.SlotIndex, is.Kind, is.Detail)
		}
		fmt.Println()
	}

	fmt.Printf("  Root cause: %s\n", r.RootCause)
	fmt.Printf("  Remediation: %s\n\n", r.Remediation)
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Find a safe UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && truncated[len(truncated)-1]>>6 == 2 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}
