package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/noah-isme/sma-gradebook-api/internal/models"
)

// yearParameterFields lists every accepted spelling per field, canonical snake_case first.
var yearParameterFields = []struct {
	canonical string
	aliases   []string
	target    func(*models.YearParametersInput) *models.OptionalInt
}{
	{"min_age", []string{"minAge", "MinAge", "tuoiToiThieu", "TuoiToiThieu"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MinAge }},
	{"max_age", []string{"maxAge", "MaxAge", "tuoiToiDa", "TuoiToiDa"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MaxAge }},
	{"max_class_size", []string{"maxClassSize", "MaxClassSize", "soHocSinhToiDa1Lop", "SiSoToiDa"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MaxClassSize }},
	{"min_subject_pass_score", []string{"minSubjectPassScore", "MinSubjectPassScore", "diemDatToiThieu", "DiemDatMon"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MinSubjectPassScore }},
	{"min_semester_pass_score", []string{"minSemesterPassScore", "MinSemesterPassScore", "diemToiThieuHocKy", "DiemDat"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MinSemesterPassScore }},
	{"min_score", []string{"minScore", "MinScore", "diemToiThieu", "DiemToiThieu"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MinScore }},
	{"max_score", []string{"maxScore", "MaxScore", "diemToiDa", "DiemToiDa"}, func(in *models.YearParametersInput) *models.OptionalInt { return &in.MaxScore }},
}

var academicYearIDKeys = []string{"academic_year_id", "academicYearId", "AcademicYearID", "AcademicYearId", "maNamHoc", "MaNamHoc"}

// YearParametersPayload is the normalised form of a year parameters request body.
type YearParametersPayload struct {
	AcademicYearID *int64
	Input          models.YearParametersInput
}

// DecodeYearParameters maps a request body written in snake_case, camelCase or PascalCase onto the
// canonical input. For each field the first present spelling wins. Non-integer values are rejected.
func DecodeYearParameters(body []byte) (YearParametersPayload, error) {
	var payload YearParametersPayload
	raw := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return payload, fmt.Errorf("payload must be a JSON object")
		}
	}

	for _, field := range yearParameterFields {
		value, ok := lookup(raw, append([]string{field.canonical}, field.aliases...))
		if !ok {
			continue
		}
		v, err := intOrNull(value)
		if err != nil {
			return payload, fmt.Errorf("%s must be an integer or null", field.canonical)
		}
		*field.target(&payload.Input) = models.OptionalInt{Set: true, Value: v}
	}

	if value, ok := lookup(raw, academicYearIDKeys); ok {
		v, err := intOrNull(value)
		if err != nil || v == nil {
			return payload, fmt.Errorf("academic_year_id must be an integer")
		}
		id := int64(*v)
		payload.AcademicYearID = &id
	}

	return payload, nil
}

func lookup(raw map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func intOrNull(value json.RawMessage) (*int, error) {
	trimmed := bytes.TrimSpace(value)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return nil, fmt.Errorf("not a number: %s", trimmed)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, fmt.Errorf("not an integer: %s", n)
	}
	v := int(f)
	return &v, nil
}
