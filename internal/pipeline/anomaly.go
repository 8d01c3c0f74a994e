package pipeline

import (
	"math"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultDeviationThreshold is the number of standard deviations from the
// batch mean beyond which a polarity score is anomalous.
const DefaultDeviationThreshold = 1.5

// Polarity returns positive minus negative, rounded to 4 decimal places.
func Polarity(s models.Sentiment) float64 {
	return round4(s.Positive - s.Negative)
}

// DetectAnomalies sets PolarityScore and IsAnomaly on every article in place
// and returns the batch statistics. Mean and standard deviation are population
// statistics over the whole batch; an article is anomalous only when its score
// lies strictly outside mean ± k·std. A batch of one, or one whose scores are
// all equal, has zero spread and therefore no anomalies.
func DetectAnomalies(articles []models.Article, k float64) models.BatchStats {
	stats := models.BatchStats{Count: len(articles), Threshold: k}
	if len(articles) == 0 {
		return stats
	}

	scores := make([]float64, len(articles))
	for i := range articles {
		articles[i].PolarityScore = Polarity(articles[i].Sentiment)
		scores[i] = articles[i].PolarityScore
	}

	stats.Mean, stats.StdDev = meanStdDev(scores)
	stats.Lower = stats.Mean - k*stats.StdDev
	stats.Upper = stats.Mean + k*stats.StdDev

	for i := range articles {
		s := articles[i].PolarityScore
		articles[i].IsAnomaly = s > stats.Upper || s < stats.Lower
		if articles[i].IsAnomaly {
			stats.Anomalies++
		}
	}
	return stats
}

// meanStdDev returns the mean and population standard deviation of xs.
func meanStdDev(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
