package integrity

import "fmt"

// defaultShaderName is the shader assigned when the planner rebuilds a
// material whose shader reference is broken.
const defaultShaderName = "PBR"

// defaultDrawOrder is the geometry queue used when a category sets no
// minimum.
const defaultDrawOrder = 2000

// PlanRepairs turns a diagnosis into a concrete patch set. It is a pure
// function of its inputs and proposes only changes it is confident about:
// ambiguous or unmatched rebinds come back in unresolved instead of being
// guessed. Applying the returned patches and planning again yields an empty
// plan.
func PlanRepairs(snap *Snapshot, idx TextureIndex, diag *Diagnosis, tables *Tables) (patches []Patch, unresolved []IssueRecord) {
	// One set_blend patch per material even when blend and draw order both
	// drifted, and no slot-level patches for materials already being replaced.
	replaced := make(map[string]bool)
	blendPatched := make(map[string]bool)

	for _, is := range diag.Issues {
		switch is.Kind {
		case IssueNullSlot:
			p, bad := planReplacement(snap, idx, is, tables)
			if bad != nil {
				unresolved = append(unresolved, *bad)
				continue
			}
			replaced[p.NewMaterial.Name] = true
			patches = append(patches, *p)

		case IssueBrokenShader:
			p, bad := planReplacement(snap, idx, is, tables)
			if bad != nil {
				unresolved = append(unresolved, *bad)
				continue
			}
			replaced[is.MaterialName] = true
			patches = append(patches, *p)

		case IssueMissingRequiredTexture:
			if replaced[is.MaterialName] {
				continue
			}
			cand := BestUnambiguous(is.MaterialName, idx, tables.Matcher)
			if cand == nil {
				unresolved = append(unresolved, is)
				continue
			}
			patches = append(patches, Patch{
				Op:           OpBindTexture,
				NodePath:     is.NodePath,
				SlotIndex:    is.SlotIndex,
				MaterialName: is.MaterialName,
				TextureProp:  tables.TextureProperties[0],
				TextureName:  cand.Name,
				Resolves:     is,
			})

		case IssueWrongBlendMode:
			if replaced[is.MaterialName] || blendPatched[is.MaterialName] {
				continue
			}
			node := snap.Nodes[is.NodePath]
			mat := snap.Materials[is.MaterialName]
			if node == nil || mat == nil {
				unresolved = append(unresolved, is)
				continue
			}
			policy, ok := tables.PolicyFor(CategoryForSlot(node, mat, tables))
			if !ok {
				unresolved = append(unresolved, is)
				continue
			}
			blendPatched[is.MaterialName] = true
			patches = append(patches, Patch{
				Op:           OpSetBlend,
				NodePath:     is.NodePath,
				SlotIndex:    is.SlotIndex,
				MaterialName: is.MaterialName,
				Blend:        policy.Blend,
				ZWrite:       policy.ZWrite,
				DrawOrder:    repairedDrawOrder(mat.DrawOrder, policy),
				Resolves:     is,
			})

		case IssueAmbiguousReplacement, IssueNoReplacementFound:
			// Recorded by the diagnose pass; nothing safe to propose.
			unresolved = append(unresolved, is)
		}
	}

	return patches, unresolved
}

// planReplacement builds a fresh, policy-conformant material for a null slot
// or a broken shader. Existing texture bindings are preserved; the primary
// texture is seeded from the matcher when the category requires one.
func planReplacement(snap *Snapshot, idx TextureIndex, is IssueRecord, tables *Tables) (*Patch, *IssueRecord) {
	node := snap.Nodes[is.NodePath]
	if node == nil {
		bad := is
		bad.Detail = "node disappeared between diagnose and plan"
		return nil, &bad
	}

	mat := snap.Materials[is.MaterialName]
	seedName := node.Name
	if mat != nil {
		seedName = mat.Name
	}

	cat := CategoryForSlot(node, mat, tables)
	policy, ok := tables.PolicyFor(cat)
	if !ok {
		bad := is
		bad.Detail = fmt.Sprintf("no render policy for category %s; will not rebuild blindly", cat)
		return nil, &bad
	}

	fresh := &MaterialDescriptor{
		Name:       seedName,
		ShaderName: defaultShaderName,
		Blend:      policy.Blend,
		ZWrite:     policy.ZWrite,
		DrawOrder:  repairedDrawOrder(0, policy),
		Textures:   map[string]*TextureRef{},
	}
	if mat != nil {
		fresh.DrawOrder = repairedDrawOrder(mat.DrawOrder, policy)
		for prop, tex := range mat.Textures {
			if tex != nil {
				fresh.Textures[prop] = tex
			}
		}
	}

	if policy.RequiresTexture && !hasTextureBinding(fresh, tables.TextureProperties) {
		cand := BestUnambiguous(seedName, idx, tables.Matcher)
		if cand == nil {
			bad := is
			bad.Kind = replacementFailureKind(seedName, idx, tables)
			bad.Detail = "cannot rebuild material: no safe texture to seed it with"
			return nil, &bad
		}
		fresh.Textures[tables.TextureProperties[0]] = cand.Texture
	}

	return &Patch{
		Op:          OpReplaceMaterial,
		NodePath:    is.NodePath,
		SlotIndex:   is.SlotIndex,
		NewMaterial: fresh,
		Resolves:    is,
	}, nil
}

func replacementFailureKind(name string, idx TextureIndex, tables *Tables) IssueKind {
	if len(MatchTexture(name, idx, tables.Matcher)) == 0 {
		return IssueNoReplacementFound
	}
	return IssueAmbiguousReplacement
}

func repairedDrawOrder(current int, policy RenderPolicy) int {
	min := policy.MinDrawOrder
	if min == 0 {
		min = defaultDrawOrder
	}
	if current >= min {
		return current
	}
	return min
}

// Apply returns a new snapshot with the patch set applied. The input
// snapshot is untouched. Applying the same patches to the result is a no-op.
func Apply(snap *Snapshot, patches []Patch, idx TextureIndex) *Snapshot {
	out := snap.Clone()
	for _, p := range patches {
		switch p.Op {
		case OpReplaceMaterial:
			if p.NewMaterial == nil {
				continue
			}
			out.Materials[p.NewMaterial.Name] = cloneMaterial(p.NewMaterial)
			if node := out.Nodes[p.NodePath]; node != nil {
				for i := range node.Slots {
					if node.Slots[i].Index == p.SlotIndex {
						node.Slots[i].MaterialName = p.NewMaterial.Name
					}
				}
			}
		case OpBindTexture:
			if mat := out.Materials[p.MaterialName]; mat != nil {
				if mat.Textures == nil {
					mat.Textures = map[string]*TextureRef{}
				}
				if tex := idx.Lookup(p.TextureName); tex != nil {
					tc := *tex
					mat.Textures[p.TextureProp] = &tc
				}
			}
		case OpSetBlend:
			if mat := out.Materials[p.MaterialName]; mat != nil {
				mat.Blend = p.Blend
				mat.ZWrite = p.ZWrite
				mat.DrawOrder = p.DrawOrder
			}
		}
	}
	return out
}
