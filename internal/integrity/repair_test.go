package integrity

import "testing"

func planAndApply(t *testing.T, snap *Snapshot, idx TextureIndex, tables *Tables) (*Snapshot, []Patch, []IssueRecord) {
	t.Helper()
	diag := Diagnose(snap, idx, tables)
	patches, unresolved := PlanRepairs(snap, idx, diag, tables)
	return Apply(snap, patches, idx), patches, unresolved
}

func TestRepair_RebuildsEyeMaterialFromExactTexture(t *testing.T) {
	mat := baseMaterial("Std_Eye_L_Diffuse")
	mat.ShaderName = ""
	snap := oneSlotGraph("base/eye_l", "Eye_L", mat)
	idx := makeIndex("std_eye_l_diffuse")
	tables := DefaultTables()

	after, patches, unresolved := planAndApply(t, snap, idx, tables)
	if len(unresolved) != 0 {
		t.Fatalf("expected fully resolvable repair, got unresolved %+v", unresolved)
	}
	if len(patches) != 1 || patches[0].Op != OpReplaceMaterial {
		t.Fatalf("expected one replace_material patch, got %+v", patches)
	}

	fresh := after.Materials["Std_Eye_L_Diffuse"]
	if fresh == nil {
		t.Fatal("rebuilt material missing from snapshot")
	}
	if fresh.ShaderName == "" || fresh.ShaderBroken {
		t.Error("rebuilt material must have a working shader")
	}
	if fresh.Blend != BlendOpaque || !fresh.ZWrite {
		t.Errorf("eye base policy not applied: blend=%s z_write=%v", fresh.Blend, fresh.ZWrite)
	}
	if tex := fresh.Textures["Diffuse"]; tex == nil || tex.Name != "std_eye_l_diffuse" {
		t.Errorf("expected the exact-key texture bound, got %+v", fresh.Textures)
	}

	if pass, diag := Verify(after, idx, tables); !pass {
		t.Errorf("verify after repair failed: %+v", diag.Issues)
	}
}

func TestRepair_FixesOpaqueOverlayBlend(t *testing.T) {
	mat := withTexture(baseMaterial("TearLine_Mat"), "Diffuse")
	mat.Blend = BlendOpaque
	mat.DrawOrder = 2000
	snap := oneSlotGraph("base/cc_base_tearline_r", "CC_Base_TearLine_R", mat)
	idx := makeIndex("tearline_base")
	tables := DefaultTables()

	after, patches, unresolved := planAndApply(t, snap, idx, tables)
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved: %+v", unresolved)
	}
	if len(patches) != 1 || patches[0].Op != OpSetBlend {
		t.Fatalf("expected one set_blend patch, got %+v", patches)
	}

	fixed := after.Materials["TearLine_Mat"]
	if fixed.Blend != BlendFade || fixed.ZWrite || fixed.DrawOrder != 3000 {
		t.Errorf("overlay policy not applied: blend=%s z_write=%v draw_order=%d",
			fixed.Blend, fixed.ZWrite, fixed.DrawOrder)
	}
	// Everything else is preserved.
	if fixed.Textures["Diffuse"] == nil {
		t.Error("set_blend must not touch texture bindings")
	}
	if fixed.ShaderName != mat.ShaderName {
		t.Error("set_blend must not touch the shader")
	}

	if pass, diag := Verify(after, idx, tables); !pass {
		t.Errorf("verify after repair failed: %+v", diag.Issues)
	}
}

func TestRepair_BindsUnambiguousTexture(t *testing.T) {
	mat := baseMaterial("Scalp_Transparency_Diffuse")
	mat.Blend = BlendCutout
	mat.DrawOrder = 2450
	snap := oneSlotGraph("base/hair_scalp", "Hair_Scalp", mat)
	idx := makeIndex("Scalp_Transparency_Diffuse", "Scalp_Transparency_Diffuse_0002")
	tables := DefaultTables()

	after, patches, unresolved := planAndApply(t, snap, idx, tables)
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved: %+v", unresolved)
	}
	if len(patches) != 1 || patches[0].Op != OpBindTexture {
		t.Fatalf("expected one bind_texture patch, got %+v", patches)
	}
	if patches[0].TextureName != "Scalp_Transparency_Diffuse" {
		t.Errorf("bound %s, want the exact-match candidate", patches[0].TextureName)
	}

	if pass, diag := Verify(after, idx, tables); !pass {
		t.Errorf("verify after repair failed: %+v", diag.Issues)
	}
}

func TestRepair_AmbiguousIsNeverAutoBound(t *testing.T) {
	mat := baseMaterial("Eye_L")
	snap := oneSlotGraph("base/eye_l", "Eye_L", mat)
	idx := makeIndex("eye_l_diffuse", "eye_l_albedo")
	tables := DefaultTables()

	diag := Diagnose(snap, idx, tables)
	patches, unresolved := PlanRepairs(snap, idx, diag, tables)
	for _, p := range patches {
		if p.Op == OpBindTexture {
			t.Fatalf("ambiguous candidates must not be auto-bound: %+v", p)
		}
	}
	if len(unresolved) == 0 {
		t.Fatal("expected the ambiguous rebind reported as unresolved")
	}
}

func TestRepair_NullSlotOnUncategorizedStaysUnresolved(t *testing.T) {
	snap := oneSlotGraph("base/xyz_custom", "XYZ_Custom", nil)
	idx := makeIndex("hair_base")
	tables := DefaultTables()

	diag := Diagnose(snap, idx, tables)
	patches, unresolved := PlanRepairs(snap, idx, diag, tables)
	if len(patches) != 0 {
		t.Fatalf("no valid category, nothing should be proposed: %+v", patches)
	}
	if len(unresolved) != 1 {
		t.Fatalf("expected one unresolved issue, got %+v", unresolved)
	}
}

func TestRepair_NullSlotRebuilt(t *testing.T) {
	snap := oneSlotGraph("base/cc_base_tearline_l", "CC_Base_TearLine_L", nil)
	idx := makeIndex("hair_base")
	tables := DefaultTables()

	after, patches, unresolved := planAndApply(t, snap, idx, tables)
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved: %+v", unresolved)
	}
	if len(patches) != 1 || patches[0].Op != OpReplaceMaterial {
		t.Fatalf("expected one replace_material patch, got %+v", patches)
	}

	node := after.Nodes["base/cc_base_tearline_l"]
	if node.Slots[0].MaterialName == "" {
		t.Fatal("slot still null after repair")
	}
	if pass, diag := Verify(after, idx, tables); !pass {
		t.Errorf("verify after repair failed: %+v", diag.Issues)
	}
}

func TestRepair_Idempotence(t *testing.T) {
	// A graph with all three repairable problem classes at once.
	eyeMat := baseMaterial("Std_Eye_L_Diffuse")
	eyeMat.ShaderName = ""
	tearMat := withTexture(baseMaterial("TearLine_Mat"), "Diffuse")
	tearMat.Blend = BlendOpaque
	scalpMat := baseMaterial("Scalp_Transparency_Diffuse")
	scalpMat.Blend = BlendCutout
	scalpMat.DrawOrder = 2450

	nodes := []*AssetNode{
		{Path: "base/eye_l", Name: "Eye_L", Slots: []Slot{{Index: 0, MaterialName: "Std_Eye_L_Diffuse"}}},
		{Path: "base/cc_base_tearline_r", Name: "CC_Base_TearLine_R", Slots: []Slot{{Index: 0, MaterialName: "TearLine_Mat"}}},
		{Path: "base/hair_scalp", Name: "Hair_Scalp", Slots: []Slot{{Index: 0, MaterialName: "Scalp_Transparency_Diffuse"}}},
	}
	snap := NewSnapshot(nodes, []*MaterialDescriptor{eyeMat, tearMat, scalpMat})
	idx := makeIndex("std_eye_l_diffuse", "Scalp_Transparency_Diffuse")
	tables := DefaultTables()

	diag := Diagnose(snap, idx, tables)
	patches, unresolved := PlanRepairs(snap, idx, diag, tables)
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved: %+v", unresolved)
	}
	if len(patches) == 0 {
		t.Fatal("expected patches for a broken graph")
	}

	after := Apply(snap, patches, idx)

	diag2 := Diagnose(after, idx, tables)
	patches2, unresolved2 := PlanRepairs(after, idx, diag2, tables)
	if len(patches2) != 0 {
		t.Errorf("second plan must be empty, got %+v", patches2)
	}
	if len(unresolved2) != 0 {
		t.Errorf("second pass must have nothing unresolved, got %+v", unresolved2)
	}

	// Re-applying the same patch set changes nothing.
	again := Apply(after, patches, idx)
	diff := DiffSnapshots(after, again, idx, tables)
	if len(diff.MaterialsChanged) != 0 || len(diff.SlotRebinds) != 0 ||
		len(diff.MaterialsAdded) != 0 || len(diff.MaterialsRemoved) != 0 {
		t.Errorf("re-apply is not a no-op: %+v", diff)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	mat := baseMaterial("TearLine_Mat")
	mat.Blend = BlendOpaque
	snap := oneSlotGraph("base/cc_base_tearline_r", "CC_Base_TearLine_R", mat)
	idx := makeIndex("tearline_base")
	tables := DefaultTables()

	diag := Diagnose(snap, idx, tables)
	patches, _ := PlanRepairs(snap, idx, diag, tables)
	_ = Apply(snap, patches, idx)

	if snap.Materials["TearLine_Mat"].Blend != BlendOpaque {
		t.Error("Apply mutated the input snapshot")
	}
}
