package json

import (
	"encoding/json"

	"sapling/tree"
)

/*
NodeEncodeDecoder is an interface for objects
that allow encoding nodes into slices of
bytes and decoding them back to nodes.
*/
type NodeEncodeDecoder interface {

	//Encode receives a *tree.Node
	//and returns a slice of bytes with the node
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(*tree.Node) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *tree.Node decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (*tree.Node, error)
}

type nodeEncodeDecoder struct{}

type node struct {
	ID             string           `json:"id"`
	ParentID       string           `json:"pId,omitempty"`
	LeftID         string           `json:"lId,omitempty"`
	RightID        string           `json:"rId,omitempty"`
	SplitFeature   int              `json:"f,omitempty"`
	SplitThreshold float64          `json:"t,omitempty"`
	Prediction     *json.RawMessage `json:"pred,omitempty"`
}

type jsonPrediction struct {
	Probabilities map[int]float64 `json:"probs,omitempty"`
	Weight        int             `json:"w,omitempty"`
}

/*
NewNodeEncodeDecoder returns a NodeEncodeDecoder that encodes
nodes as JSON objects with their IDs, split and prediction.
*/
func NewNodeEncodeDecoder() NodeEncodeDecoder {
	return &nodeEncodeDecoder{}
}

func (ned *nodeEncodeDecoder) Encode(n *tree.Node) ([]byte, error) {
	jn := &node{
		ID:       n.ID,
		ParentID: n.ParentID,
		LeftID:   n.LeftID,
		RightID:  n.RightID,
	}
	if !n.Leaf() {
		jn.SplitFeature = n.SplitFeature
		jn.SplitThreshold = n.SplitThreshold
	}
	if n.Prediction != nil {
		p, err := json.Marshal(&jsonPrediction{Probabilities: n.Prediction.Probabilities(), Weight: n.Prediction.Weight()})
		if err != nil {
			return nil, err
		}
		rp := json.RawMessage(p)
		jn.Prediction = &rp
	}
	return json.Marshal(jn)
}

func (ned *nodeEncodeDecoder) Decode(data []byte) (*tree.Node, error) {
	jn := &node{}
	err := json.Unmarshal(data, jn)
	if err != nil {
		return nil, err
	}
	n := &tree.Node{
		ID:             jn.ID,
		ParentID:       jn.ParentID,
		LeftID:         jn.LeftID,
		RightID:        jn.RightID,
		SplitFeature:   jn.SplitFeature,
		SplitThreshold: jn.SplitThreshold,
	}
	if jn.Prediction != nil {
		n.Prediction, err = UnmarshalJSONPrediction(*jn.Prediction)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

/*
UnmarshalJSONPrediction takes a slice of bytes and returns
a pointer to a new tree.Prediction with the data from the slice
unmarshalled into it or an error. The slice of bytes is expected
to contain a JSON object with the following fields:
  - "probs": a JSON object with label keys and numeric (float64)
    values (probability of that label)
  - "w": a number (integer) corresponding to the number of
    samples in the dataset from which the prediction was made.
*/
func UnmarshalJSONPrediction(b []byte) (*tree.Prediction, error) {
	jp := &jsonPrediction{}
	err := json.Unmarshal(b, jp)
	if err != nil {
		return nil, err
	}
	return tree.NewPredictionFromProbabilities(jp.Probabilities, jp.Weight), nil
}
