package integrity

// BlendMode is a material's blending configuration.
type BlendMode string

const (
	BlendOpaque      BlendMode = "Opaque"
	BlendCutout      BlendMode = "Cutout"
	BlendFade        BlendMode = "Fade"
	BlendTransparent BlendMode = "Transparent"
)

// Category is the semantic classification derived from an asset name.
// It is recomputed from the name on every pass, never stored.
type Category string

const (
	CategoryEyeBase    Category = "eye_base"
	CategoryEyeOverlay Category = "eye_overlay"
	CategoryHair       Category = "hair"
	CategoryBrowLash   Category = "brow_lash"
	CategorySkinBody   Category = "skin_body"
	CategoryMouth      Category = "mouth"
	CategoryOther      Category = "other"
)

// Severity splits issues into ones that block correct output and ones that don't.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// IssueKind identifies one class of integrity problem.
type IssueKind string

const (
	IssueNullSlot               IssueKind = "null_slot"
	IssueBrokenShader           IssueKind = "broken_shader"
	IssueMissingRequiredTexture IssueKind = "missing_required_texture"
	IssueWrongBlendMode         IssueKind = "wrong_blend_mode_for_category"
	IssueAmbiguousReplacement   IssueKind = "ambiguous_replacement"
	IssueNoReplacementFound     IssueKind = "no_replacement_found"
)

// IssueRecord is one detected problem, pinned to a slot on a node.
type IssueRecord struct {
	NodePath     string    `json:"node_path"`
	SlotIndex    int       `json:"slot_index"`
	MaterialName string    `json:"material_name,omitempty"`
	Kind         IssueKind `json:"kind"`
	Severity     Severity  `json:"severity"`
	Detail       string    `json:"detail,omitempty"`
}

// RootCause is the single priority-selected explanation for a diagnosis.
type RootCause string

const (
	RootCauseNone             RootCause = "none"
	RootCauseBrokenShader     RootCause = "broken_shader"
	RootCauseNullSlot         RootCause = "null_slot"
	RootCauseMissingTexture   RootCause = "missing_required_texture"
	RootCauseOpaqueOverlay    RootCause = "opaque_overlay"
	RootCauseUnresolvedRebind RootCause = "unresolved_replacement"
	RootCauseBlendDrift       RootCause = "blend_policy_drift"
)

// Diagnosis is the full result of one diagnose pass.
type Diagnosis struct {
	Issues      []IssueRecord `json:"issues"`
	RootCause   RootCause     `json:"root_cause"`
	Remediation string        `json:"remediation"`
}

// CriticalCount returns the number of critical issues in the diagnosis.
func (d *Diagnosis) CriticalCount() int {
	n := 0
	for _, is := range d.Issues {
		if is.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// TextureRef describes one texture asset. The existence and content flags are
// supplied by the content analyzer; the engine only reads them.
type TextureRef struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	ExistsOnDisk bool   `json:"exists_on_disk"`
	ContentOK    bool   `json:"content_ok"`
}

// MaterialDescriptor is the render configuration bound to a slot.
// An empty ShaderName or ShaderBroken=true are both terminal broken states.
type MaterialDescriptor struct {
	Name         string                 `json:"name"`
	ShaderName   string                 `json:"shader_name"`
	ShaderBroken bool                   `json:"shader_broken"`
	Blend        BlendMode              `json:"blend_mode"`
	DrawOrder    int                    `json:"draw_order"`
	ZWrite       bool                   `json:"z_write"`
	Textures     map[string]*TextureRef `json:"textures,omitempty"` // property name -> binding, nil value = broken binding
}

// Slot is a binding point on a node. An empty MaterialName is a null slot.
type Slot struct {
	Index        int    `json:"index"`
	MaterialName string `json:"material_name,omitempty"`
}

// AssetNode is one renderable entry in the content graph.
type AssetNode struct {
	Path  string `json:"path"` // hierarchical, slash-separated
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// MatchCandidate is a possible replacement texture with its match score.
type MatchCandidate struct {
	Name    string      `json:"name"`
	Texture *TextureRef `json:"-"`
	Score   int         `json:"score"`

	normKey string
}

// PatchOp identifies what a repair patch changes.
type PatchOp string

const (
	OpReplaceMaterial PatchOp = "replace_material"
	OpBindTexture     PatchOp = "bind_texture"
	OpSetBlend        PatchOp = "set_blend"
)

// Patch is one proposed, idempotent repair. Only the fields relevant to Op
// are set. Resolves records the issue the patch fixes.
type Patch struct {
	Op           PatchOp             `json:"op"`
	NodePath     string              `json:"node_path"`
	SlotIndex    int                 `json:"slot_index"`
	MaterialName string              `json:"material_name,omitempty"`
	NewMaterial  *MaterialDescriptor `json:"new_material,omitempty"`
	TextureProp  string              `json:"texture_property,omitempty"`
	TextureName  string              `json:"texture_name,omitempty"`
	Blend        BlendMode           `json:"blend_mode,omitempty"`
	ZWrite       bool                `json:"z_write,omitempty"`
	DrawOrder    int                 `json:"draw_order,omitempty"`
	Resolves     IssueRecord         `json:"resolves"`
}
