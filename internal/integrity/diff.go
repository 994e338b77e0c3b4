package integrity

import "sort"

// MaterialChange lists which fields of a material differ between snapshots.
type MaterialChange struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// SlotRebind records a slot whose material binding changed.
type SlotRebind struct {
	NodePath  string `json:"node_path"`
	SlotIndex int    `json:"slot_index"`
	Before    string `json:"before"`
	After     string `json:"after"`
}

// SnapshotDiff is the structural delta between two snapshot values, plus the
// issue-count delta from diagnosing both. Both snapshots are plain inputs;
// nothing is cached between calls.
type SnapshotDiff struct {
	MaterialsAdded   []string         `json:"materials_added"`
	MaterialsRemoved []string         `json:"materials_removed"`
	MaterialsChanged []MaterialChange `json:"materials_changed"`
	SlotRebinds      []SlotRebind     `json:"slot_rebinds"`
	IssuesBefore     int              `json:"issues_before"`
	IssuesAfter      int              `json:"issues_after"`
	CriticalBefore   int              `json:"critical_before"`
	CriticalAfter    int              `json:"critical_after"`
}

// DiffSnapshots compares two snapshots taken before and after a repair pass.
func DiffSnapshots(before, after *Snapshot, idx TextureIndex, tables *Tables) *SnapshotDiff {
	diff := &SnapshotDiff{}

	for _, name := range after.MaterialNames() {
		if before.Materials[name] == nil {
			diff.MaterialsAdded = append(diff.MaterialsAdded, name)
		}
	}
	for _, name := range before.MaterialNames() {
		b := before.Materials[name]
		a := after.Materials[name]
		if a == nil {
			diff.MaterialsRemoved = append(diff.MaterialsRemoved, name)
			continue
		}
		if fields := changedFields(b, a); len(fields) > 0 {
			diff.MaterialsChanged = append(diff.MaterialsChanged, MaterialChange{Name: name, Fields: fields})
		}
	}

	for _, path := range before.NodePaths() {
		bn := before.Nodes[path]
		an := after.Nodes[path]
		if an == nil {
			continue
		}
		afterSlots := make(map[int]string, len(an.Slots))
		for _, s := range an.Slots {
			afterSlots[s.Index] = s.MaterialName
		}
		for _, s := range bn.Slots {
			if now, ok := afterSlots[s.Index]; ok && now != s.MaterialName {
				diff.SlotRebinds = append(diff.SlotRebinds, SlotRebind{
					NodePath:  path,
					SlotIndex: s.Index,
					Before:    s.MaterialName,
					After:     now,
				})
			}
		}
	}

	db := Diagnose(before, idx, tables)
	da := Diagnose(after, idx, tables)
	diff.IssuesBefore = len(db.Issues)
	diff.IssuesAfter = len(da.Issues)
	diff.CriticalBefore = db.CriticalCount()
	diff.CriticalAfter = da.CriticalCount()

	return diff
}

func changedFields(b, a *MaterialDescriptor) []string {
	var fields []string
	if b.ShaderName != a.ShaderName || b.ShaderBroken != a.ShaderBroken {
		fields = append(fields, "shader")
	}
	if b.Blend != a.Blend {
		fields = append(fields, "blend_mode")
	}
	if b.DrawOrder != a.DrawOrder {
		fields = append(fields, "draw_order")
	}
	if b.ZWrite != a.ZWrite {
		fields = append(fields, "z_write")
	}
	if texturesDiffer(b.Textures, a.Textures) {
		fields = append(fields, "textures")
	}
	sort.Strings(fields)
	return fields
}

func texturesDiffer(b, a map[string]*TextureRef) bool {
	if len(b) != len(a) {
		return true
	}
	for prop, bt := range b {
		at, ok := a[prop]
		if !ok {
			return true
		}
		if (bt == nil) != (at == nil) {
			return true
		}
		if bt != nil && at != nil && bt.Name != at.Name {
			return true
		}
	}
	return false
}
