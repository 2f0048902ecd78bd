// Package anova filters outliers from three-attribute observations and runs a
// two-way analysis of variance over what remains.
package anova

import "fmt"

// NumAttributes is the fixed number of columns in every observation.
const NumAttributes = 3

// AttributeNames are the record field names, in column order.
var AttributeNames = [NumAttributes]string{"Attribute1", "Attribute2", "Attribute3"}

// Observation is one record. Identity is positional.
type Observation struct {
	Attribute1 float64 `json:"Attribute1"`
	Attribute2 float64 `json:"Attribute2"`
	Attribute3 float64 `json:"Attribute3"`
}

// NewObservation builds an Observation from exactly NumAttributes values.
func NewObservation(values []float64) (Observation, error) {
	if len(values) != NumAttributes {
		return Observation{}, &MalformedRecordError{
			Index:  -1,
			Reason: fmt.Sprintf("expected %d attributes, got %d", NumAttributes, len(values)),
		}
	}
	return Observation{values[0], values[1], values[2]}, nil
}

// Values returns the attributes in column order.
func (o Observation) Values() [NumAttributes]float64 {
	return [NumAttributes]float64{o.Attribute1, o.Attribute2, o.Attribute3}
}

// Attribute returns the value in column i. It panics if i is out of range.
func (o Observation) Attribute(i int) float64 {
	return o.Values()[i]
}

// Dataset is an ordered sequence of observations.
type Dataset []Observation

// Validate checks every attribute is a finite number.
func (d Dataset) Validate() error {
	for i, o := range d {
		for j, v := range o.Values() {
			if !isFinite(v) {
				return &MalformedRecordError{Index: i, Field: AttributeNames[j], Reason: "is not a finite number"}
			}
		}
	}
	return nil
}

// Column returns a copy of column j across all observations.
func (d Dataset) Column(j int) []float64 {
	col := make([]float64, len(d))
	for i, o := range d {
		col[i] = o.Attribute(j)
	}
	return col
}
