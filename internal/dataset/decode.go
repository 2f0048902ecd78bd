// Package dataset decodes the upload wire format: a JSON array of records,
// each an object with numeric Attribute1, Attribute2 and Attribute3 fields.
// Field names match case-insensitively.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/anova.report/internal/anova"
)

// ErrTooManyRecords is returned when a document exceeds Decoder.MaxRecords.
var ErrTooManyRecords = errors.New("too many records")

type record struct {
	Attribute1 *float64
	Attribute2 *float64
	Attribute3 *float64
}

// Decoder reads datasets. The zero value accepts any number of records.
type Decoder struct {
	MaxRecords int
}

// Decode reads one JSON array from r. An empty array decodes to an empty
// dataset; the caller decides whether that is an error.
func (dec Decoder) Decode(r io.Reader) (anova.Dataset, error) {
	var raw []json.RawMessage
	jd := json.NewDecoder(r)
	if err := jd.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return anova.Dataset{}, nil
		}
		if isMalformedJSON(err) {
			return nil, &anova.MalformedRecordError{Index: -1, Reason: fmt.Sprintf("document is not a JSON array of records: %v", err)}
		}
		// reader failures, including request body limits, pass through
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if _, err := jd.Token(); !errors.Is(err, io.EOF) {
		if err != nil && !isMalformedJSON(err) {
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		return nil, &anova.MalformedRecordError{Index: -1, Reason: "unexpected data after the JSON array"}
	}
	if dec.MaxRecords > 0 && len(raw) > dec.MaxRecords {
		return nil, fmt.Errorf("%w: %d records (max %d)", ErrTooManyRecords, len(raw), dec.MaxRecords)
	}

	out := make(anova.Dataset, 0, len(raw))
	for i, msg := range raw {
		o, err := decodeRecord(i, msg)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, out.Validate()
}

func decodeRecord(i int, msg json.RawMessage) (anova.Observation, error) {
	var rec record
	if err := json.Unmarshal(msg, &rec); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return anova.Observation{}, &anova.MalformedRecordError{Index: i, Field: te.Field, Reason: "is not a number"}
		}
		return anova.Observation{}, &anova.MalformedRecordError{Index: i, Reason: "is not an object"}
	}

	fields := [anova.NumAttributes]*float64{rec.Attribute1, rec.Attribute2, rec.Attribute3}
	var vals [anova.NumAttributes]float64
	for j, f := range fields {
		if f == nil {
			return anova.Observation{}, &anova.MalformedRecordError{Index: i, Field: anova.AttributeNames[j], Reason: "is missing"}
		}
		vals[j] = *f
	}
	return anova.NewObservation(vals[:])
}

func isMalformedJSON(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Decode reads a dataset with no record limit.
func Decode(r io.Reader) (anova.Dataset, error) {
	return Decoder{}.Decode(r)
}
