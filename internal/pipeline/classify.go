package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// EventCategory is one row of a CategoryTable.
type EventCategory struct {
	Name     string   `mapstructure:"name"     yaml:"name"     json:"name"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords" json:"keywords"`
}

// CategoryTable is an ordered list of event categories. Earlier rows win when
// a text matches keywords from more than one category.
type CategoryTable []EventCategory

// DefaultCategoryTable returns the built-in table in priority order.
func DefaultCategoryTable() CategoryTable {
	return CategoryTable{
		{Name: "M&A Activity", Keywords: []string{"acquire", "merger", "takeover", "buyout", "acquisition"}},
		{Name: "Earnings Report", Keywords: []string{"earnings", "revenue", "quarter", "profit", "loss", "EPS"}},
		{Name: "Product Launch", Keywords: []string{"launch", "unveil", "release", "new product"}},
		{Name: "Legal/Regulatory", Keywords: []string{"lawsuit", "investigation", "SEC", "DOJ", "settlement", "fine"}},
		{Name: "Analyst Rating", Keywords: []string{"upgrade", "downgrade", "outperform", "target price"}},
	}
}

type compiledCategory struct {
	name     string
	patterns []*regexp.Regexp
}

// Classifier assigns an event category to an article from keyword patterns.
// It is safe for concurrent use.
type Classifier struct {
	categories []compiledCategory
}

// NewClassifier compiles table. Keywords are matched as written, as whole
// words, against case-folded text; a keyword with upper-case letters such as
// "SEC" therefore never matches.
func NewClassifier(table CategoryTable) (*Classifier, error) {
	c := &Classifier{categories: make([]compiledCategory, 0, len(table))}
	for _, cat := range table {
		if strings.TrimSpace(cat.Name) == "" {
			return nil, fmt.Errorf("event category with keywords %v has no name", cat.Keywords)
		}
		cc := compiledCategory{name: cat.Name}
		for _, kw := range cat.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			re, err := wordPattern(kw, false)
			if err != nil {
				return nil, fmt.Errorf("category %q keyword %q: %w", cat.Name, kw, err)
			}
			cc.patterns = append(cc.patterns, re)
		}
		c.categories = append(c.categories, cc)
	}
	return c, nil
}

// Classify returns the event type for an article's headline and summary.
func (c *Classifier) Classify(a models.RawArticle) string {
	return c.ClassifyText(SearchText(a))
}

// ClassifyText returns the first category with a keyword in text, or
// models.DefaultEventType. text is case-folded before matching.
func (c *Classifier) ClassifyText(text string) string {
	text = strings.ToLower(text)
	for _, cat := range c.categories {
		for _, re := range cat.patterns {
			if re.MatchString(text) {
				return cat.name
			}
		}
	}
	return models.DefaultEventType
}

// SearchText is the case-folded headline and summary used for classification
// and sentiment scoring.
func SearchText(a models.RawArticle) string {
	return strings.ToLower(a.Headline + " " + a.Summary)
}

// wordPattern matches literal as a whole word.
func wordPattern(literal string, foldCase bool) (*regexp.Regexp, error) {
	expr := `\b` + regexp.QuoteMeta(literal) + `\b`
	if foldCase {
		expr = `(?i)` + expr
	}
	return regexp.Compile(expr)
}
