package integrity

import (
	"sort"
	"strings"
)

// Match scores.
const (
	scoreExactRaw        = 100
	scoreExactNormalized = 90
	scoreNormalizedAffix = 85
	scoreSubstring       = 50
	scoreDiffuseBonus    = 20
)

// MatchTexture resolves a broken binding's name against the texture index and
// returns ranked replacement candidates.
//
// A single candidate at or above the unambiguous score is returned alone.
// Otherwise all candidates scoring above zero come back ordered by score
// descending, ties broken by normalized key ascending then raw name
// ascending, capped at TopN. Candidate order never depends on map iteration.
func MatchTexture(name string, idx TextureIndex, opts MatcherOptions) []MatchCandidate {
	targetKey := NormalizeKey(name)
	targetCollapsed := collapseName(name)
	if targetCollapsed == "" {
		return nil
	}

	var results []MatchCandidate
	for _, candName := range idx.Names() {
		score := scoreCandidate(name, targetKey, targetCollapsed, candName)
		if score <= 0 {
			continue
		}
		results = append(results, MatchCandidate{
			Name:    candName,
			Texture: idx.Lookup(candName),
			Score:   score,
			normKey: NormalizeKey(candName),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].normKey != results[j].normKey {
			return results[i].normKey < results[j].normKey
		}
		return results[i].Name < results[j].Name
	})

	if len(results) > 0 && results[0].Score >= opts.UnambiguousScore {
		// Only collapse to a single winner when nothing ties it.
		if len(results) == 1 || results[1].Score < results[0].Score {
			return results[:1]
		}
	}

	if opts.TopN > 0 && len(results) > opts.TopN {
		results = results[:opts.TopN]
	}
	return results
}

func scoreCandidate(raw, targetKey, targetCollapsed, candName string) int {
	if candName == raw {
		return scoreExactRaw
	}

	candKey := NormalizeKey(candName)
	if candKey == targetKey && targetKey != "" {
		return scoreExactNormalized
	}

	// Candidate is the target's normalized key plus one known suffix that
	// normalization did not strip (e.g. a doubled "_diffuse").
	candCollapsed := collapseName(candName)
	for _, s := range knownSuffixes {
		if candCollapsed == targetKey+collapseName(s) {
			return scoreNormalizedAffix
		}
	}

	if strings.Contains(candCollapsed, targetCollapsed) || strings.Contains(targetCollapsed, candCollapsed) {
		score := scoreSubstring
		if strings.Contains(strings.ToLower(candName), "diffuse") {
			// Bias toward color maps over normal/specular maps.
			score += scoreDiffuseBonus
		}
		return score
	}

	return 0
}

// BestUnambiguous returns the single unambiguous candidate for name, or nil
// when there are zero candidates, the top score is shared or below the
// unambiguous threshold, or the winning texture failed the content analyzer.
func BestUnambiguous(name string, idx TextureIndex, opts MatcherOptions) *MatchCandidate {
	candidates := MatchTexture(name, idx, opts)
	if len(candidates) != 1 || candidates[0].Score < opts.UnambiguousScore {
		return nil
	}
	if tex := candidates[0].Texture; tex != nil && (!tex.ExistsOnDisk || !tex.ContentOK) {
		return nil
	}
	return &candidates[0]
}
