package json

import (
	"encoding/json"
	"fmt"

	"sapling/feature"
)

/*
CriteriaEncodeDecoder is an interface for objects
that allow encoding criteria into slices of
bytes and decoding them back to criteria.
*/
type CriteriaEncodeDecoder interface {

	//Encode receives a feature.Criterion
	//and returns a slice of bytes with the criterion
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.Criterion) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.Criterion decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.Criterion, error)
}

type jsonCriteriaEncodeDecoder []feature.Feature

type jsonCriterion struct {
	Op        string  `json:"op"`
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
}

const (
	lessEqualOp   = "le"
	greaterThanOp = "gt"
)

// NewCriteriaEncodeDecoder takes a slice of feature.Feature and returns a
// CriteriaEncodeDecoder that marshals and unmarshals criteria into/from
// slices of bytes as JSON. Criteria are encoded as a JSON object with an
// "op" property ("le" for less-or-equal criteria, "gt" for greater-than
// ones), an "f" property with the feature index and a "t" property with
// the threshold.
func NewCriteriaEncodeDecoder(features []feature.Feature) CriteriaEncodeDecoder {
	return jsonCriteriaEncodeDecoder(features)
}

func (jced jsonCriteriaEncodeDecoder) Encode(fc feature.Criterion) ([]byte, error) {
	var op string
	switch fc.(type) {
	case *feature.LessEqual:
		op = lessEqualOp
	case *feature.GreaterThan:
		op = greaterThanOp
	default:
		return nil, fmt.Errorf("unknown type of feature.Criterion %T", fc)
	}
	return json.Marshal(&jsonCriterion{
		Op:        op,
		Feature:   fc.Feature().Index,
		Threshold: fc.Threshold(),
	})
}

func (jced jsonCriteriaEncodeDecoder) Decode(data []byte) (feature.Criterion, error) {
	jc := &jsonCriterion{}
	err := json.Unmarshal(data, jc)
	if err != nil {
		return nil, err
	}
	var f feature.Feature
	var found bool
	for _, feat := range jced {
		if feat.Index == jc.Feature {
			f = feat
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown feature index %d", jc.Feature)
	}
	switch jc.Op {
	case lessEqualOp:
		return feature.NewLessEqual(f, jc.Threshold), nil
	case greaterThanOp:
		return feature.NewGreaterThan(f, jc.Threshold), nil
	}
	return nil, fmt.Errorf("unknown feature criterion op %q", jc.Op)
}
