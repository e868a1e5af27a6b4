package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

func TestClassifyAssessmentByName(t *testing.T) {
	cases := []struct {
		id   int64
		name string
		want models.Bucket
	}{
		{10, "Kiểm tra miệng", models.BucketOral},
		{11, "KIỂM TRA 15 PHÚT", models.BucketFifteenMinute},
		{12, "Kiểm tra 1 tiết", models.BucketOnePeriod},
		{13, "KT 1T", models.BucketOnePeriod},
		{14, "Thi giữa kỳ", models.BucketMidterm},
		{15, "Thi cuối kỳ", models.BucketFinal},
		{4, "Cuối học kỳ", models.BucketFinal},
	}
	for _, tc := range cases {
		got, ok := classifyAssessment(tc.id, tc.name)
		require.True(t, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestClassifyAssessmentFallsBackToID(t *testing.T) {
	got, ok := classifyAssessment(3, "Oral quiz")
	require.True(t, ok)
	assert.Equal(t, models.BucketOnePeriod, got)

	got, ok = classifyAssessment(2, "")
	require.True(t, ok)
	assert.Equal(t, models.BucketFifteenMinute, got)

	_, ok = classifyAssessment(9, "Project")
	assert.False(t, ok)
}

func TestBucketAveragesUnweighted(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	details := []models.ScoreDetail{
		{Bucket: models.BucketFifteenMinute, Score: score(7)},
		{Bucket: models.BucketFifteenMinute, Score: score(8)},
		{Bucket: models.BucketFifteenMinute, Score: score(8)},
		{Bucket: models.BucketFifteenMinute, Score: nil},
		{Bucket: models.BucketFinal, Score: score(9)},
		{Bucket: "", Score: score(1)},
	}

	avg := bucketAverages(details)
	require.NotNil(t, avg.FifteenMinute)
	assert.Equal(t, 7.67, *avg.FifteenMinute)
	assert.Equal(t, 9.0, *avg.Final)
	assert.Nil(t, avg.Oral)
	assert.Nil(t, avg.Midterm)
}
