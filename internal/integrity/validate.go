package integrity

import "fmt"

// ValidateMaterial checks one material against its category's render policy
// and returns all issues found. Checks are independent; a material can fail
// several at once. Categories without a policy entry (Other) are unchecked.
func ValidateMaterial(nodePath string, slotIndex int, mat *MaterialDescriptor, cat Category, tables *Tables) []IssueRecord {
	var issues []IssueRecord

	if mat.ShaderName == "" || mat.ShaderBroken {
		issues = append(issues, IssueRecord{
			NodePath:     nodePath,
			SlotIndex:    slotIndex,
			MaterialName: mat.Name,
			Kind:         IssueBrokenShader,
			Severity:     SeverityCritical,
			Detail:       "shader reference is missing or in an error state",
		})
	}

	policy, ok := tables.PolicyFor(cat)
	if !ok {
		return issues
	}

	if policy.RequiresTexture && !hasTextureBinding(mat, tables.TextureProperties) {
		issues = append(issues, IssueRecord{
			NodePath:     nodePath,
			SlotIndex:    slotIndex,
			MaterialName: mat.Name,
			Kind:         IssueMissingRequiredTexture,
			Severity:     SeverityCritical,
			Detail:       fmt.Sprintf("category %s requires a texture but no binding is set", cat),
		})
	}

	if mat.Blend != policy.Blend {
		severity := SeverityWarning
		detail := fmt.Sprintf("blend mode is %s, category %s expects %s", mat.Blend, cat, policy.Blend)
		if cat == CategoryEyeOverlay && mat.Blend == BlendOpaque {
			// An opaque overlay fully occludes the surface beneath it.
			severity = SeverityCritical
			detail = "opaque blend on an overlay occludes the surface beneath it"
		}
		issues = append(issues, IssueRecord{
			NodePath:     nodePath,
			SlotIndex:    slotIndex,
			MaterialName: mat.Name,
			Kind:         IssueWrongBlendMode,
			Severity:     severity,
			Detail:       detail,
		})
	}

	if mat.Blend != BlendOpaque && policy.MinDrawOrder > 0 && mat.DrawOrder < policy.MinDrawOrder {
		issues = append(issues, IssueRecord{
			NodePath:     nodePath,
			SlotIndex:    slotIndex,
			MaterialName: mat.Name,
			Kind:         IssueWrongBlendMode,
			Severity:     SeverityWarning,
			Detail:       fmt.Sprintf("draw order %d is below the category minimum %d; may draw before the surface it overlays", mat.DrawOrder, policy.MinDrawOrder),
		})
	}

	return issues
}

func hasTextureBinding(mat *MaterialDescriptor, recognized []string) bool {
	for prop, tex := range mat.Textures {
		if tex == nil {
			continue
		}
		for _, want := range recognized {
			if collapseName(prop) == collapseName(want) {
				return true
			}
		}
	}
	return false
}
