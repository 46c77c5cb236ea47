package quiz

import (
	"sort"
	"strings"

	"github.com/forPelevin/gomoji"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ranggaxyy/deplot-bot/internal/questions"
)

var categoryAliases = map[string]questions.Category{
	"math":       questions.Math,
	"matematika": questions.Math,
	"mtk":        questions.Math,
	"hitungan":   questions.Math,
	"riddle":     questions.Riddle,
	"teka-teki":  questions.Riddle,
	"teka teki":  questions.Riddle,
	"tekateki":   questions.Riddle,
	"logic":      questions.Logic,
	"logika":     questions.Logic,
}

var aliasNames = func() []string {
	names := make([]string, 0, len(categoryAliases))
	for name := range categoryAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

const (
	minFuzzyInput   = 3
	maxSubseqGap    = 5
	maxTypoDistance = 2
)

// normalizeLabel drops emoji and surrounding space and lowercases, so that
// keyboard labels like "🧮 Matematika" read the same as typed text.
func normalizeLabel(text string) string {
	return strings.ToLower(strings.TrimSpace(gomoji.RemoveEmojis(text)))
}

// matchCategory resolves free text to a category. Exact aliases win, then
// abbreviations ("matem"), then small typos ("matematka").
func matchCategory(text string) (questions.Category, bool) {
	in := normalizeLabel(text)
	if in == "" {
		return "", false
	}
	if cat, ok := categoryAliases[in]; ok {
		return cat, true
	}
	if len(in) < minFuzzyInput {
		return "", false
	}

	ranks := fuzzy.RankFindNormalizedFold(in, aliasNames)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		if best := ranks[0]; best.Distance <= maxSubseqGap && strings.HasPrefix(best.Target, in[:1]) {
			return categoryAliases[best.Target], true
		}
	}

	bestDist, bestName := maxTypoDistance+1, ""
	for _, name := range aliasNames {
		if len(name) < 5 {
			continue
		}
		if d := fuzzy.LevenshteinDistance(in, name); d < bestDist {
			bestDist, bestName = d, name
		}
	}
	if bestName == "" {
		return "", false
	}
	return categoryAliases[bestName], true
}

func isMenuLabel(text string) bool {
	switch normalizeLabel(text) {
	case "menu", "menu utama", "kembali":
		return true
	}
	return false
}
