package store

import (
	"database/sql"
	"fmt"
	"sort"

	"matdoctor/internal/integrity"
)

// ApplyPatches persists a planner patch set in a single transaction.
// Either every patch lands or none do. Re-applying the same patch set is a
// no-op at the data level: every statement is an upsert to the same values.
func (s *Store) ApplyPatches(patches []integrity.Patch) error {
	if len(patches) == 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning patch transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range patches {
		switch p.Op {
		case integrity.OpReplaceMaterial:
			if p.NewMaterial == nil {
				return fmt.Errorf("replace_material patch for %s has no material", p.NodePath)
			}
			if err := upsertMaterial(tx, p.NewMaterial); err != nil {
				return fmt.Errorf("replacing material %s: %w", p.NewMaterial.Name, err)
			}
			if _, err := tx.Exec(`
				INSERT INTO slots (node_path, slot_index, material_name) VALUES (?, ?, ?)
				ON CONFLICT(node_path, slot_index) DO UPDATE SET material_name = excluded.material_name
			`, p.NodePath, p.SlotIndex, p.NewMaterial.Name); err != nil {
				return fmt.Errorf("rebinding slot %s[%d]: %w", p.NodePath, p.SlotIndex, err)
			}

		case integrity.OpBindTexture:
			if _, err := tx.Exec(`
				INSERT INTO material_textures (material_name, property, texture_name) VALUES (?, ?, ?)
				ON CONFLICT(material_name, property) DO UPDATE SET texture_name = excluded.texture_name
			`, p.MaterialName, p.TextureProp, p.TextureName); err != nil {
				return fmt.Errorf("binding texture %s to %s: %w", p.TextureName, p.MaterialName, err)
			}

		case integrity.OpSetBlend:
			if _, err := tx.Exec(`
				UPDATE materials SET blend_mode = ?, z_write = ?, draw_order = ? WHERE name = ?
			`, string(p.Blend), p.ZWrite, p.DrawOrder, p.MaterialName); err != nil {
				return fmt.Errorf("updating blend settings on %s: %w", p.MaterialName, err)
			}

		default:
			return fmt.Errorf("unknown patch op %q", p.Op)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing patch transaction: %w", err)
	}
	return nil
}

func upsertMaterial(tx *sql.Tx, m *integrity.MaterialDescriptor) error {
	if _, err := tx.Exec(`
		INSERT INTO materials (name, shader_name, shader_broken, blend_mode, draw_order, z_write)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			shader_name = excluded.shader_name,
			shader_broken = excluded.shader_broken,
			blend_mode = excluded.blend_mode,
			draw_order = excluded.draw_order,
			z_write = excluded.z_write
	`, m.Name, m.ShaderName, m.ShaderBroken, string(m.Blend), m.DrawOrder, m.ZWrite); err != nil {
		return err
	}

	// Replace the binding set wholesale so stale nil bindings don't survive
	// the rebuild.
	if _, err := tx.Exec(`DELETE FROM material_textures WHERE material_name = ?`, m.Name); err != nil {
		return err
	}
	for _, prop := range sortedProps(m.Textures) {
		tex := m.Textures[prop]
		var texName any
		if tex != nil {
			texName = tex.Name
		}
		if _, err := tx.Exec(`
			INSERT INTO material_textures (material_name, property, texture_name) VALUES (?, ?, ?)
		`, m.Name, prop, texName); err != nil {
			return err
		}
	}
	return nil
}

func sortedProps(textures map[string]*integrity.TextureRef) []string {
	props := make([]string, 0, len(textures))
	for p := range textures {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}
