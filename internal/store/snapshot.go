package store

import (
	"database/sql"
	"fmt"

	"matdoctor/internal/integrity"
)

// LoadSnapshot reads the full content graph into an immutable snapshot value.
func (s *Store) LoadSnapshot() (*integrity.Snapshot, error) {
	nodes, err := s.loadNodes()
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	materials, err := s.loadMaterials()
	if err != nil {
		return nil, fmt.Errorf("loading materials: %w", err)
	}
	return integrity.NewSnapshot(nodes, materials), nil
}

func (s *Store) loadNodes() ([]*integrity.AssetNode, error) {
	rows, err := s.conn.Query(`SELECT path, name FROM nodes ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byPath := make(map[string]*integrity.AssetNode)
	var nodes []*integrity.AssetNode
	for rows.Next() {
		n := &integrity.AssetNode{}
		if err := rows.Scan(&n.Path, &n.Name); err != nil {
			return nil, err
		}
		byPath[n.Path] = n
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slotRows, err := s.conn.Query(`
		SELECT node_path, slot_index, material_name
		FROM slots ORDER BY node_path, slot_index
	`)
	if err != nil {
		return nil, err
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var nodePath string
		var slot integrity.Slot
		var matName sql.NullString
		if err := slotRows.Scan(&nodePath, &slot.Index, &matName); err != nil {
			return nil, err
		}
		slot.MaterialName = matName.String
		if n := byPath[nodePath]; n != nil {
			n.Slots = append(n.Slots, slot)
		}
	}
	return nodes, slotRows.Err()
}

func (s *Store) loadMaterials() ([]*integrity.MaterialDescriptor, error) {
	rows, err := s.conn.Query(`
		SELECT name, shader_name, shader_broken, blend_mode, draw_order, z_write
		FROM materials ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := make(map[string]*integrity.MaterialDescriptor)
	var materials []*integrity.MaterialDescriptor
	for rows.Next() {
		m := &integrity.MaterialDescriptor{Textures: map[string]*integrity.TextureRef{}}
		var blend string
		if err := rows.Scan(&m.Name, &m.ShaderName, &m.ShaderBroken, &blend, &m.DrawOrder, &m.ZWrite); err != nil {
			return nil, err
		}
		m.Blend = integrity.BlendMode(blend)
		byName[m.Name] = m
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	texRows, err := s.conn.Query(`
		SELECT mt.material_name, mt.property, mt.texture_name,
		       t.name, t.path, t.exists_on_disk, t.content_ok
		FROM material_textures mt
		LEFT JOIN textures t ON t.name = mt.texture_name
		ORDER BY mt.material_name, mt.property
	`)
	if err != nil {
		return nil, err
	}
	defer texRows.Close()

	for texRows.Next() {
		var matName, property string
		var texName sql.NullString
		var name, path sql.NullString
		var exists, contentOK sql.NullBool
		if err := texRows.Scan(&matName, &property, &texName, &name, &path, &exists, &contentOK); err != nil {
			return nil, err
		}
		m := byName[matName]
		if m == nil {
			continue
		}
		// A binding row whose texture no longer exists is kept as nil: that
		// is exactly the broken state the engine diagnoses.
		if !texName.Valid || !name.Valid {
			m.Textures[property] = nil
			continue
		}
		m.Textures[property] = &integrity.TextureRef{
			Name:         name.String,
			Path:         path.String,
			ExistsOnDisk: exists.Bool,
			ContentOK:    contentOK.Bool,
		}
	}
	return materials, texRows.Err()
}

// LoadTextureIndex reads the texture index. An empty index is a collaborator
// failure, not an integrity finding: the matcher cannot run without it.
func (s *Store) LoadTextureIndex() (integrity.TextureIndex, error) {
	rows, err := s.conn.Query(`SELECT name, path, exists_on_disk, content_ok FROM textures ORDER BY name`)
	if err != nil {
		return integrity.TextureIndex{}, fmt.Errorf("loading texture index: %w", err)
	}
	defer rows.Close()

	var textures []*integrity.TextureRef
	for rows.Next() {
		t := &integrity.TextureRef{}
		if err := rows.Scan(&t.Name, &t.Path, &t.ExistsOnDisk, &t.ContentOK); err != nil {
			return integrity.TextureIndex{}, err
		}
		textures = append(textures, t)
	}
	if err := rows.Err(); err != nil {
		return integrity.TextureIndex{}, err
	}

	idx := integrity.NewTextureIndex(textures)
	if idx.Len() == 0 {
		return idx, fmt.Errorf("texture index is empty: nothing to match against")
	}
	return idx, nil
}
