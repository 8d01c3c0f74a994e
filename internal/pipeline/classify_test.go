package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newspulse/pkg/models"
)

func mustClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultCategoryTable())
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	c := mustClassifier(t)
	tests := []struct {
		name     string
		headline string
		summary  string
		want     string
	}{
		{"acquisition", "Company X to acquire Company Y", "", "M&A Activity"},
		{"merger wins over earnings", "Merger talks lift quarterly earnings outlook", "", "M&A Activity"},
		{"earnings", "Apple posts record quarter", "", "Earnings Report"},
		{"summary only", "Apple shares move", "Revenue came in ahead of estimates.", "Earnings Report"},
		{"product", "Google to unveil Pixel lineup", "", "Product Launch"},
		{"multi word keyword", "Tesla shows new product at event", "", "Product Launch"},
		{"legal", "Meta faces lawsuit over data", "", "Legal/Regulatory"},
		{"analyst", "Analyst sees Nvidia outperform peers", "", "Analyst Rating"},
		{"earnings beats analyst", "Downgrade follows weak profit", "", "Earnings Report"},
		{"case folded", "MICROSOFT TO ACQUIRE GAME STUDIO", "", "M&A Activity"},
		{"upper-case SEC keyword never matches", "SEC probes Apple", "", models.DefaultEventType},
		{"upper-case EPS keyword never matches", "Apple EPS tops view", "", models.DefaultEventType},
		{"upper-case DOJ keyword never matches", "DOJ sues Google", "", models.DefaultEventType},
		{"substring only", "Acquired taste: finest coffee", "", models.DefaultEventType},
		{"no keyword", "Apple opens store in Mumbai", "", models.DefaultEventType},
		{"empty", "", "", models.DefaultEventType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(models.RawArticle{Headline: tt.headline, Summary: tt.summary})
			assert.Equal(t, tt.want, got, "Classify(%q, %q)", tt.headline, tt.summary)
		})
	}
}

func TestClassifyLowerCaseCustomKeyword(t *testing.T) {
	c, err := NewClassifier(CategoryTable{{Name: "Regulatory", Keywords: []string{"sec"}}})
	require.NoError(t, err)
	assert.Equal(t, "Regulatory", c.ClassifyText("SEC probes Apple"))
}

func TestClassifyTableOrderDecidesTies(t *testing.T) {
	table := CategoryTable{
		{Name: "Second", Keywords: []string{"profit"}},
		{Name: "First", Keywords: []string{"merger"}},
	}
	c, err := NewClassifier(table)
	require.NoError(t, err)
	assert.Equal(t, "Second", c.ClassifyText("merger boosts profit"), "earlier table row wins")
}

func TestDefaultCategoryTableOrder(t *testing.T) {
	want := []string{"M&A Activity", "Earnings Report", "Product Launch", "Legal/Regulatory", "Analyst Rating"}
	table := DefaultCategoryTable()
	got := make([]string, len(table))
	for i, row := range table {
		got[i] = row.Name
	}
	assert.Equal(t, want, got)
}

func TestNewClassifierRejectsUnnamedCategory(t *testing.T) {
	_, err := NewClassifier(CategoryTable{{Keywords: []string{"x"}}})
	assert.Error(t, err)
}

func TestSearchText(t *testing.T) {
	got := SearchText(models.RawArticle{Headline: "Apple Beats", Summary: "Strong iPhone"})
	assert.Equal(t, "apple beats strong iphone", got)
}
