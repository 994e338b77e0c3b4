// Package config loads the classifier, render-policy and matcher tables.
// The tables ship with built-in defaults and can be overridden wholesale by
// a matdoctor.yaml file, so the keyword lists live in exactly one place.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"matdoctor/internal/integrity"
)

// Rule is one classifier precedence entry.
type Rule struct {
	Category string   `mapstructure:"category" yaml:"category"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// Policy is the expected render configuration for one category.
type Policy struct {
	Category        string  `mapstructure:"category" yaml:"category"`
	Blend           string  `mapstructure:"blend" yaml:"blend"`
	ZWrite          bool    `mapstructure:"z_write" yaml:"z_write"`
	MinDrawOrder    int     `mapstructure:"min_draw_order" yaml:"min_draw_order"`
	CutoutAlpha     float64 `mapstructure:"cutout_alpha" yaml:"cutout_alpha"`
	RequiresTexture bool    `mapstructure:"requires_texture" yaml:"requires_texture"`
}

// Matcher tunes the fuzzy asset matcher.
type Matcher struct {
	TopN             int `mapstructure:"top_n" yaml:"top_n"`
	UnambiguousScore int `mapstructure:"unambiguous_score" yaml:"unambiguous_score"`
}

// Config is the full loadable configuration.
type Config struct {
	Classifier        []Rule   `mapstructure:"classifier" yaml:"classifier"`
	Policies          []Policy `mapstructure:"policies" yaml:"policies"`
	Matcher           Matcher  `mapstructure:"matcher" yaml:"matcher"`
	TextureProperties []string `mapstructure:"texture_properties" yaml:"texture_properties"`
}

// Default returns the built-in configuration, mirroring integrity.DefaultTables.
func Default() *Config {
	cfg := &Config{Matcher: Matcher{TopN: 5, UnambiguousScore: 80}}
	t := integrity.DefaultTables()
	for _, r := range t.Rules {
		cfg.Classifier = append(cfg.Classifier, Rule{Category: string(r.Category), Keywords: r.Keywords})
	}
	for _, c := range orderedCategories {
		p := t.Policies[c]
		cfg.Policies = append(cfg.Policies, Policy{
			Category:        string(c),
			Blend:           string(p.Blend),
			ZWrite:          p.ZWrite,
			MinDrawOrder:    p.MinDrawOrder,
			CutoutAlpha:     p.CutoutAlpha,
			RequiresTexture: p.RequiresTexture,
		})
	}
	cfg.TextureProperties = t.TextureProperties
	return cfg
}

var orderedCategories = []integrity.Category{
	integrity.CategoryEyeOverlay,
	integrity.CategoryHair,
	integrity.CategoryBrowLash,
	integrity.CategoryEyeBase,
	integrity.CategoryMouth,
	integrity.CategorySkinBody,
}

// Load returns the defaults merged with an optional YAML config file and
// MATDOCTOR_* environment overrides. An empty path means defaults plus
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MATDOCTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key with viper. Unmarshal only consults the
// environment for keys viper already knows, so each default must be
// registered even though Default carries the same values.
func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("matcher.top_n", def.Matcher.TopN)
	v.SetDefault("matcher.unambiguous_score", def.Matcher.UnambiguousScore)
	v.SetDefault("texture_properties", def.TextureProperties)

	rules := make([]map[string]any, 0, len(def.Classifier))
	for _, r := range def.Classifier {
		rules = append(rules, map[string]any{
			"category": r.Category,
			"keywords": r.Keywords,
		})
	}
	v.SetDefault("classifier", rules)

	policies := make([]map[string]any, 0, len(def.Policies))
	for _, p := range def.Policies {
		policies = append(policies, map[string]any{
			"category":         p.Category,
			"blend":            p.Blend,
			"z_write":          p.ZWrite,
			"min_draw_order":   p.MinDrawOrder,
			"cutout_alpha":     p.CutoutAlpha,
			"requires_texture": p.RequiresTexture,
		})
	}
	v.SetDefault("policies", policies)
}

func validate(cfg *Config) error {
	for _, r := range cfg.Classifier {
		if _, err := parseCategory(r.Category); err != nil {
			return fmt.Errorf("classifier rule: %w", err)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("classifier rule %s has no keywords", r.Category)
		}
	}
	for _, p := range cfg.Policies {
		if _, err := parseCategory(p.Category); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
		if _, err := parseBlend(p.Blend); err != nil {
			return fmt.Errorf("policy %s: %w", p.Category, err)
		}
	}
	if cfg.Matcher.TopN <= 0 {
		return fmt.Errorf("matcher top_n must be positive, got %d", cfg.Matcher.TopN)
	}
	if len(cfg.TextureProperties) == 0 {
		return fmt.Errorf("texture_properties must not be empty")
	}
	return nil
}

// Tables converts the loaded configuration into the engine's rule set.
// Load has already validated the category and blend names.
func (c *Config) Tables() *integrity.Tables {
	t := &integrity.Tables{
		Policies: make(map[integrity.Category]integrity.RenderPolicy, len(c.Policies)),
		Matcher: integrity.MatcherOptions{
			TopN:             c.Matcher.TopN,
			UnambiguousScore: c.Matcher.UnambiguousScore,
		},
		TextureProperties: c.TextureProperties,
	}
	for _, r := range c.Classifier {
		cat, _ := parseCategory(r.Category)
		t.Rules = append(t.Rules, integrity.CategoryRule{Category: cat, Keywords: r.Keywords})
	}
	for _, p := range c.Policies {
		cat, _ := parseCategory(p.Category)
		blend, _ := parseBlend(p.Blend)
		t.Policies[cat] = integrity.RenderPolicy{
			Blend:           blend,
			ZWrite:          p.ZWrite,
			MinDrawOrder:    p.MinDrawOrder,
			CutoutAlpha:     p.CutoutAlpha,
			RequiresTexture: p.RequiresTexture,
		}
	}
	return t
}

func parseCategory(s string) (integrity.Category, error) {
	switch integrity.Category(strings.ToLower(s)) {
	case integrity.CategoryEyeBase, integrity.CategoryEyeOverlay, integrity.CategoryHair,
		integrity.CategoryBrowLash, integrity.CategorySkinBody, integrity.CategoryMouth,
		integrity.CategoryOther:
		return integrity.Category(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

func parseBlend(s string) (integrity.BlendMode, error) {
	switch strings.ToLower(s) {
	case "opaque":
		return integrity.BlendOpaque, nil
	case "cutout":
		return integrity.BlendCutout, nil
	case "fade":
		return integrity.BlendFade, nil
	case "transparent":
		return integrity.BlendTransparent, nil
	default:
		return "", fmt.Errorf("unknown blend mode %q", s)
	}
}
