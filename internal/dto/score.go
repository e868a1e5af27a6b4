package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// OptionalScore tells an explicit "score": null apart from an omitted score key.
type OptionalScore struct {
	Set   bool
	Value *float64
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key is present.
func (s *OptionalScore) UnmarshalJSON(b []byte) error {
	s.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		s.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("score must be a number or null")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("score must be finite")
	}
	s.Value = &v
	return nil
}

// ScoreDetailRequest is one assessment score. Missing ids or attempts cause the detail to be skipped.
type ScoreDetailRequest struct {
	AssessmentTypeID *int64        `json:"assessment_type_id"`
	Attempt          *int          `json:"attempt"`
	Score            OptionalScore `json:"score" swaggertype:"number"`
}

// StudentScoresRequest groups the scores of one student.
type StudentScoresRequest struct {
	StudentID string               `json:"student_id"`
	Details   []ScoreDetailRequest `json:"details"`
}

// EnterScoresRequest is the body of a score batch.
type EnterScoresRequest struct {
	Entries []StudentScoresRequest `json:"entries" validate:"required"`
}

// ToInput converts the request into ledger input, reporting the rows that cannot be used.
func (r EnterScoresRequest) ToInput() ([]models.StudentScoresInput, []models.SkippedRow) {
	inputs := make([]models.StudentScoresInput, 0, len(r.Entries))
	var skipped []models.SkippedRow
	for i, entry := range r.Entries {
		if entry.StudentID == "" {
			skipped = append(skipped, models.SkippedRow{RowIndex: i, DetailIndex: -1, Reason: "missing student_id"})
			continue
		}
		in := models.StudentScoresInput{RowIndex: i, StudentID: entry.StudentID}
		for j, d := range entry.Details {
			switch {
			case d.AssessmentTypeID == nil || *d.AssessmentTypeID <= 0:
				skipped = append(skipped, models.SkippedRow{RowIndex: i, DetailIndex: j, StudentID: entry.StudentID, Reason: "missing assessment_type_id"})
				continue
			case d.Attempt == nil || *d.Attempt < 1:
				skipped = append(skipped, models.SkippedRow{RowIndex: i, DetailIndex: j, StudentID: entry.StudentID, Reason: "missing attempt"})
				continue
			}
			in.Details = append(in.Details, models.ScoreDetailInput{
				AssessmentTypeID: *d.AssessmentTypeID,
				Attempt:          *d.Attempt,
				ScoreSet:         d.Score.Set,
				Score:            d.Score.Value,
			})
		}
		inputs = append(inputs, in)
	}
	return inputs, skipped
}
