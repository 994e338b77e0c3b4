package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matdoctor/internal/integrity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedFixture(t *testing.T, st *Store) {
	t.Helper()
	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO nodes (path, name) VALUES (?, ?)`, []any{"base/eye_l", "Eye_L"}},
		{`INSERT INTO nodes (path, name) VALUES (?, ?)`, []any{"base/hair_scalp", "Hair_Scalp"}},
		{`INSERT INTO slots (node_path, slot_index, material_name) VALUES (?, ?, ?)`, []any{"base/eye_l", 0, "Std_Eye_L"}},
		{`INSERT INTO slots (node_path, slot_index, material_name) VALUES (?, ?, ?)`, []any{"base/hair_scalp", 0, nil}},
		{`INSERT INTO materials (name, shader_name, shader_broken, blend_mode, draw_order, z_write) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"Std_Eye_L", "PBR", 0, "Opaque", 2000, 1}},
		{`INSERT INTO textures (name, path, exists_on_disk, content_ok) VALUES (?, ?, ?, ?)`,
			[]any{"std_eye_l_diffuse", "textures/std_eye_l_diffuse.png", 1, 1}},
		{`INSERT INTO material_textures (material_name, property, texture_name) VALUES (?, ?, ?)`,
			[]any{"Std_Eye_L", "Diffuse", "std_eye_l_diffuse"}},
	}
	for _, s := range stmts {
		_, err := st.Conn().Exec(s.q, s.args...)
		require.NoError(t, err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	st := openTestStore(t)
	seedFixture(t, st)

	snap, err := st.LoadSnapshot()
	require.NoError(t, err)

	require.Len(t, snap.Nodes, 2)
	eye := snap.Nodes["base/eye_l"]
	require.NotNil(t, eye)
	require.Len(t, eye.Slots, 1)
	assert.Equal(t, "Std_Eye_L", eye.Slots[0].MaterialName)

	// NULL material_name loads as a null slot.
	scalp := snap.Nodes["base/hair_scalp"]
	require.NotNil(t, scalp)
	assert.Equal(t, "", scalp.Slots[0].MaterialName)

	mat := snap.Materials["Std_Eye_L"]
	require.NotNil(t, mat)
	assert.Equal(t, integrity.BlendOpaque, mat.Blend)
	assert.True(t, mat.ZWrite)
	require.NotNil(t, mat.Textures["Diffuse"])
	assert.Equal(t, "std_eye_l_diffuse", mat.Textures["Diffuse"].Name)
}

func TestLoadSnapshot_DanglingTextureBindingIsNil(t *testing.T) {
	st := openTestStore(t)
	seedFixture(t, st)
	_, err := st.Conn().Exec(
		`INSERT INTO material_textures (material_name, property, texture_name) VALUES (?, ?, ?)`,
		"Std_Eye_L", "Normal", "gone_texture")
	require.NoError(t, err)

	snap, err := st.LoadSnapshot()
	require.NoError(t, err)

	mat := snap.Materials["Std_Eye_L"]
	prop, ok := mat.Textures["Normal"]
	require.True(t, ok, "binding row must be present")
	assert.Nil(t, prop, "binding to a missing texture must load as nil")
}

func TestLoadTextureIndex(t *testing.T) {
	st := openTestStore(t)
	seedFixture(t, st)

	idx, err := st.LoadTextureIndex()
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	require.NotNil(t, idx.Lookup("std_eye_l_diffuse"))
}

func TestLoadTextureIndex_EmptyIsError(t *testing.T) {
	st := openTestStore(t)
	_, err := st.LoadTextureIndex()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestApplyPatches_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	seedFixture(t, st)
	_, err := st.Conn().Exec(`INSERT INTO textures (name) VALUES (?)`, "scalp_diffuse")
	require.NoError(t, err)

	patches := []integrity.Patch{
		{
			Op:        integrity.OpReplaceMaterial,
			NodePath:  "base/hair_scalp",
			SlotIndex: 0,
			NewMaterial: &integrity.MaterialDescriptor{
				Name:       "Hair_Scalp",
				ShaderName: "PBR",
				Blend:      integrity.BlendCutout,
				ZWrite:     true,
				DrawOrder:  2450,
				Textures: map[string]*integrity.TextureRef{
					"Diffuse": {Name: "scalp_diffuse", ExistsOnDisk: true, ContentOK: true},
				},
			},
		},
		{
			Op:           integrity.OpSetBlend,
			NodePath:     "base/eye_l",
			SlotIndex:    0,
			MaterialName: "Std_Eye_L",
			Blend:        integrity.BlendOpaque,
			ZWrite:       true,
			DrawOrder:    2100,
		},
	}
	require.NoError(t, st.ApplyPatches(patches))

	snap, err := st.LoadSnapshot()
	require.NoError(t, err)

	scalp := snap.Nodes["base/hair_scalp"]
	assert.Equal(t, "Hair_Scalp", scalp.Slots[0].MaterialName)
	mat := snap.Materials["Hair_Scalp"]
	require.NotNil(t, mat)
	assert.Equal(t, integrity.BlendCutout, mat.Blend)
	require.NotNil(t, mat.Textures["Diffuse"])

	assert.Equal(t, 2100, snap.Materials["Std_Eye_L"].DrawOrder)

	// Re-applying the same batch is a no-op.
	require.NoError(t, st.ApplyPatches(patches))
	again, err := st.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.MaterialNames(), again.MaterialNames())
	assert.Equal(t, 2100, again.Materials["Std_Eye_L"].DrawOrder)
}

func TestApplyPatches_BindTexture(t *testing.T) {
	st := openTestStore(t)
	seedFixture(t, st)

	patches := []integrity.Patch{{
		Op:           integrity.OpBindTexture,
		NodePath:     "base/eye_l",
		SlotIndex:    0,
		MaterialName: "Std_Eye_L",
		TextureProp:  "Base Color",
		TextureName:  "std_eye_l_diffuse",
	}}
	require.NoError(t, st.ApplyPatches(patches))

	snap, err := st.LoadSnapshot()
	require.NoError(t, err)
	tex := snap.Materials["Std_Eye_L"].Textures["Base Color"]
	require.NotNil(t, tex)
	assert.Equal(t, "std_eye_l_diffuse", tex.Name)
}

func TestApplyPatches_EmptyIsNoop(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.ApplyPatches(nil))
}

func TestApplyPatches_UnknownOpRollsBack(t *testing.T) {
	st := openTestStore(t)
	seedFixture(t, st)

	patches := []integrity.Patch{
		{
			Op:           integrity.OpSetBlend,
			NodePath:     "base/eye_l",
			SlotIndex:    0,
			MaterialName: "Std_Eye_L",
			Blend:        integrity.BlendFade,
			ZWrite:       false,
			DrawOrder:    3000,
		},
		{Op: integrity.PatchOp("bogus")},
	}
	require.Error(t, st.ApplyPatches(patches))

	// The valid patch before the bad one must not have landed.
	snap, err := st.LoadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, integrity.BlendOpaque, snap.Materials["Std_Eye_L"].Blend)
}
