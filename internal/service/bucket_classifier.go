package service

import (
	"strings"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
	"github.com/noah-isme/sma-gradebook-api/pkg/textfold"
)

type bucketRule struct {
	bucket   models.Bucket
	keywords []string
}

// Rules run in order over the folded type name. "15" is checked before the 1-period keywords
// so "Kiểm tra 15 phút" never lands in one_period.
var bucketRules = []bucketRule{
	{models.BucketOral, []string{"mieng"}},
	{models.BucketFifteenMinute, []string{"15"}},
	{models.BucketOnePeriod, []string{"1 tiet", "1t", "tiet"}},
	{models.BucketMidterm, []string{"giua"}},
	{models.BucketFinal, []string{"cuoi"}},
}

var bucketByID = map[int64]models.Bucket{
	1: models.BucketOral,
	2: models.BucketFifteenMinute,
	3: models.BucketOnePeriod,
	4: models.BucketMidterm,
	5: models.BucketFinal,
}

// classifyAssessment maps an assessment type to a display bucket: first by name keywords, then by
// the 1-5 id convention. ok is false when neither matches.
func classifyAssessment(id int64, name string) (models.Bucket, bool) {
	folded := textfold.Fold(name)
	if folded != "" {
		for _, rule := range bucketRules {
			for _, kw := range rule.keywords {
				if strings.Contains(folded, kw) {
					return rule.bucket, true
				}
			}
		}
	}
	b, ok := bucketByID[id]
	return b, ok
}

// bucketAverages computes the unweighted round2 mean of graded scores per bucket.
func bucketAverages(details []models.ScoreDetail) models.BucketAverages {
	type acc struct {
		sum   float64
		count int
	}
	sums := map[models.Bucket]*acc{}
	for _, d := range details {
		if d.Bucket == "" || d.Score == nil {
			continue
		}
		a, ok := sums[d.Bucket]
		if !ok {
			a = &acc{}
			sums[d.Bucket] = a
		}
		a.sum += *d.Score
		a.count++
	}

	var out models.BucketAverages
	for bucket, a := range sums {
		avg := round2(a.sum / float64(a.count))
		out.Set(bucket, &avg)
	}
	return out
}
