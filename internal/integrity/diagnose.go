package integrity

import (
	"fmt"
	"sort"
	"strings"
)

// CategoryForSlot derives the category the validator checks a slot's material
// against. The node name is authoritative; when it matches no rule the
// material name is tried, so a generically named node with a material like
// "Std_Eye_L" is still checked.
func CategoryForSlot(node *AssetNode, mat *MaterialDescriptor, tables *Tables) Category {
	cat := tables.Classify(node.Name)
	if cat == CategoryOther && mat != nil {
		cat = tables.Classify(mat.Name)
	}
	return cat
}

// Diagnose runs one read-only integrity pass over the snapshot and returns
// the full diagnosis. It always completes with a report; integrity findings
// are collected, never returned as errors.
func Diagnose(snap *Snapshot, idx TextureIndex, tables *Tables) *Diagnosis {
	var issues []IssueRecord

	for _, path := range snap.NodePaths() {
		node := snap.Nodes[path]
		for _, slot := range node.Slots {
			mat := snap.Materials[slot.MaterialName]
			if slot.MaterialName == "" || mat == nil {
				issues = append(issues, IssueRecord{
					NodePath:  path,
					SlotIndex: slot.Index,
					Kind:      IssueNullSlot,
					Severity:  SeverityCritical,
					Detail:    "slot has no material bound",
				})
				continue
			}

			cat := CategoryForSlot(node, mat, tables)
			matIssues := ValidateMaterial(path, slot.Index, mat, cat, tables)
			issues = append(issues, matIssues...)

			// When a required texture is missing, consult the matcher now so
			// the diagnosis already says whether a safe rebind exists.
			for _, is := range matIssues {
				if is.Kind != IssueMissingRequiredTexture {
					continue
				}
				issues = append(issues, replacementIssue(path, slot.Index, mat, idx, tables)...)
			}
		}
	}

	return Aggregate(issues)
}

func replacementIssue(nodePath string, slotIndex int, mat *MaterialDescriptor, idx TextureIndex, tables *Tables) []IssueRecord {
	if BestUnambiguous(mat.Name, idx, tables.Matcher) != nil {
		return nil // a safe rebind exists, the planner will bind it
	}
	candidates := MatchTexture(mat.Name, idx, tables.Matcher)
	if len(candidates) == 0 {
		return []IssueRecord{{
			NodePath:     nodePath,
			SlotIndex:    slotIndex,
			MaterialName: mat.Name,
			Kind:         IssueNoReplacementFound,
			Severity:     SeverityWarning,
			Detail:       "no texture in the index resembles this material's name",
		}}
	}
	return []IssueRecord{{
		NodePath:     nodePath,
		SlotIndex:    slotIndex,
		MaterialName: mat.Name,
		Kind:         IssueAmbiguousReplacement,
		Severity:     SeverityWarning,
		Detail:       fmt.Sprintf("%d candidate(s), none safe to auto-bind", len(candidates)),
	}}
}

// rootCausePriority orders causes from most to least actionable. A broken
// shader makes every other observation about that material meaningless until
// fixed, so it always dominates.
var rootCausePriority = []RootCause{
	RootCauseBrokenShader,
	RootCauseNullSlot,
	RootCauseMissingTexture,
	RootCauseOpaqueOverlay,
	RootCauseUnresolvedRebind,
	RootCauseBlendDrift,
}

var remediationTemplates = map[RootCause]string{
	RootCauseBrokenShader:     "Rebuild the material on %s: the shader reference is broken and must be reassigned before any other repair is meaningful.",
	RootCauseNullSlot:         "Bind a material to the empty slot(s) on %s.",
	RootCauseMissingTexture:   "Re-link the required texture map(s) for %s from the texture index.",
	RootCauseOpaqueOverlay:    "Switch the overlay material(s) on %s to Fade blending with depth write off and a draw order of at least 3000.",
	RootCauseUnresolvedRebind: "No replacement texture could be chosen safely for %s; bind one manually.",
	RootCauseBlendDrift:       "Align blend mode, depth write and draw order with the category policy for %s.",
}

// Aggregate groups the issues from one pass and selects the single root
// cause by fixed priority, with its remediation text.
func Aggregate(issues []IssueRecord) *Diagnosis {
	if len(issues) == 0 {
		return &Diagnosis{RootCause: RootCauseNone, Remediation: "no action required."}
	}

	present := make(map[RootCause][]string)
	for _, is := range issues {
		cause := causeOf(is)
		present[cause] = append(present[cause], is.NodePath)
	}

	for _, cause := range rootCausePriority {
		paths, ok := present[cause]
		if !ok {
			continue
		}
		return &Diagnosis{
			Issues:      issues,
			RootCause:   cause,
			Remediation: fmt.Sprintf(remediationTemplates[cause], joinPaths(paths)),
		}
	}

	// Unreachable while causeOf is total, but a diagnosis must never be
	// silently empty when issues exist.
	return &Diagnosis{Issues: issues, RootCause: RootCauseNone, Remediation: "no action required."}
}

func causeOf(is IssueRecord) RootCause {
	switch is.Kind {
	case IssueBrokenShader:
		return RootCauseBrokenShader
	case IssueNullSlot:
		return RootCauseNullSlot
	case IssueMissingRequiredTexture:
		return RootCauseMissingTexture
	case IssueAmbiguousReplacement, IssueNoReplacementFound:
		return RootCauseUnresolvedRebind
	case IssueWrongBlendMode:
		if is.Severity == SeverityCritical {
			return RootCauseOpaqueOverlay
		}
		return RootCauseBlendDrift
	default:
		return RootCauseBlendDrift
	}
}

func joinPaths(paths []string) string {
	seen := make(map[string]bool, len(paths))
	var uniq []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			uniq = append(uniq, p)
		}
	}
	sort.Strings(uniq)
	return strings.Join(uniq, ", ")
}

// Verify re-runs a full diagnose pass and reports whether the graph is
// acceptable: pass iff zero critical issues remain.
func Verify(snap *Snapshot, idx TextureIndex, tables *Tables) (bool, *Diagnosis) {
	diag := Diagnose(snap, idx, tables)
	return diag.CriticalCount() == 0, diag
}
