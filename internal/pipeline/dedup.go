package pipeline

import "github.com/seenimoa/newspulse/pkg/models"

// Deduplicate keeps one article per distinct headline. When a headline repeats,
// the last occurrence replaces the earlier one but keeps the position at which
// the headline was first seen. Headlines are compared exactly, so identical
// headlines from different sources collapse into one.
func Deduplicate(articles []models.RawArticle) []models.RawArticle {
	if len(articles) == 0 {
		return []models.RawArticle{}
	}

	index := make(map[string]int, len(articles))
	out := make([]models.RawArticle, 0, len(articles))
	for _, a := range articles {
		if i, ok := index[a.Headline]; ok {
			out[i] = a
			continue
		}
		index[a.Headline] = len(out)
		out = append(out, a)
	}
	return out
}
