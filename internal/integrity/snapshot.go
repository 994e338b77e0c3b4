package integrity

import (
	"sort"
	"strings"
)

// Snapshot is an immutable view of the content graph for one pass.
// Diagnose and PlanRepairs never mutate it; Apply returns a new value.
type Snapshot struct {
	Nodes     map[string]*AssetNode
	Materials map[string]*MaterialDescriptor
}

// NewSnapshot builds a Snapshot from raw nodes and materials.
func NewSnapshot(nodes []*AssetNode, materials []*MaterialDescriptor) *Snapshot {
	nodeMap := make(map[string]*AssetNode, len(nodes))
	for _, n := range nodes {
		nodeMap[n.Path] = n
	}
	matMap := make(map[string]*MaterialDescriptor, len(materials))
	for _, m := range materials {
		matMap[m.Name] = m
	}
	return &Snapshot{Nodes: nodeMap, Materials: matMap}
}

// NodePaths returns a sorted list of all node paths (for deterministic output)
func (s *Snapshot) NodePaths() []string {
	paths := make([]string, 0, len(s.Nodes))
	for p := range s.Nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// MaterialNames returns a sorted list of all material names.
func (s *Snapshot) MaterialNames() []string {
	names := make([]string, 0, len(s.Materials))
	for n := range s.Materials {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FilterToNode returns a new snapshot containing only nodes at or under path.
// Materials are carried whole; they are shared across the graph.
func (s *Snapshot) FilterToNode(path string) *Snapshot {
	var nodes []*AssetNode
	for _, n := range s.Nodes {
		if n.Path == path || strings.HasPrefix(n.Path, path+"/") {
			nodes = append(nodes, n)
		}
	}
	var mats []*MaterialDescriptor
	for _, m := range s.Materials {
		mats = append(mats, m)
	}
	return NewSnapshot(nodes, mats)
}

// Clone deep-copies the snapshot so patches can be applied without touching
// the original.
func (s *Snapshot) Clone() *Snapshot {
	nodes := make([]*AssetNode, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		slots := make([]Slot, len(n.Slots))
		copy(slots, n.Slots)
		nodes = append(nodes, &AssetNode{Path: n.Path, Name: n.Name, Slots: slots})
	}
	mats := make([]*MaterialDescriptor, 0, len(s.Materials))
	for _, m := range s.Materials {
		mats = append(mats, cloneMaterial(m))
	}
	return NewSnapshot(nodes, mats)
}

func cloneMaterial(m *MaterialDescriptor) *MaterialDescriptor {
	c := *m
	if m.Textures != nil {
		c.Textures = make(map[string]*TextureRef, len(m.Textures))
		for prop, t := range m.Textures {
			if t == nil {
				c.Textures[prop] = nil
				continue
			}
			tc := *t
			c.Textures[prop] = &tc
		}
	}
	return &c
}

// TextureIndex is the name-keyed index of available texture assets.
type TextureIndex struct {
	byName map[string]*TextureRef
}

// NewTextureIndex builds an index from texture refs.
func NewTextureIndex(textures []*TextureRef) TextureIndex {
	byName := make(map[string]*TextureRef, len(textures))
	for _, t := range textures {
		byName[t.Name] = t
	}
	return TextureIndex{byName: byName}
}

// Names returns all indexed texture names, sorted.
func (idx TextureIndex) Names() []string {
	names := make([]string, 0, len(idx.byName))
	for n := range idx.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the texture with the given exact name, or nil if absent.
func (idx TextureIndex) Lookup(name string) *TextureRef {
	return idx.byName[name]
}

// Len returns the number of indexed textures.
func (idx TextureIndex) Len() int {
	return len(idx.byName)
}
