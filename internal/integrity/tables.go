package integrity

import "strings"

// CategoryRule maps a keyword set to a category. Rules are evaluated in
// order; the first rule with any matching keyword wins.
type CategoryRule struct {
	Category Category
	Keywords []string
}

// RenderPolicy is the expected blend/visibility configuration for a category.
type RenderPolicy struct {
	Blend           BlendMode
	ZWrite          bool
	MinDrawOrder    int
	CutoutAlpha     float64
	RequiresTexture bool
}

// MatcherOptions tunes the fuzzy asset matcher.
type MatcherOptions struct {
	TopN             int
	UnambiguousScore int
}

// Tables is the loaded rule set the whole engine runs against: classifier
// precedence rules, per-category render policies, matcher tuning, and the
// texture-binding property names the validator recognizes.
type Tables struct {
	Rules             []CategoryRule
	Policies          map[Category]RenderPolicy
	Matcher           MatcherOptions
	TextureProperties []string
}

// DefaultTables returns the built-in rule set.
//
// Rule order is load-bearing: overlay keywords must be checked before the
// eye-base set so a name containing both "cornea" and "eye" lands on
// EyeOverlay, never EyeBase.
func DefaultTables() *Tables {
	return &Tables{
		Rules: []CategoryRule{
			{Category: CategoryEyeOverlay, Keywords: []string{"occlusion", "tearline", "cornea"}},
			{Category: CategoryHair, Keywords: []string{"hair", "scalp", "babyhair"}},
			{Category: CategoryBrowLash, Keywords: []string{"brow", "eyebrow", "lash"}},
			{Category: CategoryEyeBase, Keywords: []string{"eye", "iris", "sclera"}},
			{Category: CategoryMouth, Keywords: []string{"mouth", "lip"}},
			{Category: CategorySkinBody, Keywords: []string{"skin", "head", "body", "arm", "leg", "teeth", "tongue", "nail"}},
		},
		Policies: map[Category]RenderPolicy{
			CategoryEyeOverlay: {Blend: BlendFade, ZWrite: false, MinDrawOrder: 3000},
			CategoryHair:       {Blend: BlendCutout, ZWrite: true, MinDrawOrder: 2450, CutoutAlpha: 0.4, RequiresTexture: true},
			CategoryBrowLash:   {Blend: BlendCutout, ZWrite: true, MinDrawOrder: 2450, CutoutAlpha: 0.4, RequiresTexture: true},
			CategoryEyeBase:    {Blend: BlendOpaque, ZWrite: true, RequiresTexture: true},
			CategorySkinBody:   {Blend: BlendOpaque, ZWrite: true},
			CategoryMouth:      {Blend: BlendOpaque, ZWrite: true},
		},
		Matcher: MatcherOptions{
			TopN:             5,
			UnambiguousScore: 80,
		},
		TextureProperties: []string{"Diffuse", "Base Color", "Albedo", "MainTex"},
	}
}

// Classify assigns a category to a name by the precedence-ordered keyword
// rules. Names matching no rule are CategoryOther. Pure function of the name
// and the rule set.
func (t *Tables) Classify(name string) Category {
	collapsed := collapseName(name)
	for _, rule := range t.Rules {
		for _, kw := range rule.Keywords {
			if kw != "" && containsKeyword(collapsed, kw) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}

// PolicyFor returns the render policy for a category. Other has no policy
// and is never checked.
func (t *Tables) PolicyFor(c Category) (RenderPolicy, bool) {
	p, ok := t.Policies[c]
	return p, ok
}

func containsKeyword(collapsed, keyword string) bool {
	return strings.Contains(collapsed, collapseName(keyword))
}
