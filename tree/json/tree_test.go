package json

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"sapling/feature"
	"sapling/tree"
)

func testTree(t *testing.T) *tree.Tree {
	t.Helper()
	ctx := context.Background()
	ns := tree.NewMemoryNodeStore()
	left, err := tree.NewPrediction(map[int]int{0: 2})
	if err != nil {
		t.Fatal("building prediction:", err)
	}
	right, err := tree.NewPrediction(map[int]int{1: 3, 0: 1})
	if err != nil {
		t.Fatal("building prediction:", err)
	}
	leftNode := &tree.Node{Prediction: left}
	rightNode := &tree.Node{Prediction: right}
	for _, n := range []*tree.Node{leftNode, rightNode} {
		if err := ns.Create(ctx, n); err != nil {
			t.Fatal("creating node:", err)
		}
	}
	root := &tree.Node{
		LeftID:         leftNode.ID,
		RightID:        rightNode.ID,
		SplitFeature:   0,
		SplitThreshold: 3.5,
	}
	if err := ns.Create(ctx, root); err != nil {
		t.Fatal("creating node:", err)
	}
	leftNode.ParentID = root.ID
	rightNode.ParentID = root.ID
	return tree.New(root.ID, ns, feature.List([]string{"age", "fare"}))
}

func TestJSONTreeRoundTrip(t *testing.T) {
	ctx := context.Background()
	original := testTree(t)

	var buf bytes.Buffer
	if err := WriteJSONTree(ctx, &buf, original); err != nil {
		t.Fatal("writing tree:", err)
	}

	decoded, err := ReadJSONTree(ctx, &buf, tree.NewMemoryNodeStore())
	if err != nil {
		t.Fatal("reading tree:", err)
	}
	if decoded.RootID != original.RootID {
		t.Error("expected root id to be:", original.RootID, "got:", decoded.RootID)
	}
	if len(decoded.Features) != 2 || decoded.Features[1].Name != "fare" {
		t.Error("expected tree features to survive the round trip, got:", decoded.Features)
	}

	for _, tc := range []struct {
		values []float64
		label  int
		prob   float64
	}{
		{[]float64{3.5, 0}, 0, 1.0},
		{[]float64{3.6, 0}, 1, 0.75},
	} {
		p, err := decoded.Predict(ctx, tc.values)
		if err != nil {
			t.Fatal("predicting sample", tc.values, ":", err)
		}
		label, prob := p.Label()
		if label != tc.label {
			t.Error("expected label for", tc.values, "to be:", tc.label, "got:", label)
		}
		if prob != tc.prob {
			t.Error("expected probability for", tc.values, "to be:", tc.prob, "got:", prob)
		}
		weight := p.Weight()
		if weight == 0 {
			t.Error("expected prediction weight to survive the round trip")
		}
	}
}

func TestReadJSONTreeNoRoot(t *testing.T) {
	ctx := context.Background()
	_, err := ReadJSONTree(ctx, strings.NewReader(`{"features":["age"],"nodes":[]}`), tree.NewMemoryNodeStore())
	if err == nil {
		t.Error("expected an error on a tree document without a root id")
	}
}

func TestNodeEncodeDecodeRoundTrip(t *testing.T) {
	ned := NewNodeEncodeDecoder()
	p, err := tree.NewPrediction(map[int]int{2: 1, 7: 3})
	if err != nil {
		t.Fatal("building prediction:", err)
	}
	n := &tree.Node{
		ID:             "n1",
		ParentID:       "n0",
		LeftID:         "n2",
		RightID:        "n3",
		SplitFeature:   4,
		SplitThreshold: 0.25,
		Prediction:     p,
	}

	data, err := ned.Encode(n)
	if err != nil {
		t.Fatal("encoding node:", err)
	}
	got, err := ned.Decode(data)
	if err != nil {
		t.Fatal("decoding node:", err)
	}
	if got.ID != n.ID || got.ParentID != n.ParentID || got.LeftID != n.LeftID || got.RightID != n.RightID {
		t.Error("expected node ids to survive the round trip, got:", got)
	}
	if got.SplitFeature != n.SplitFeature || got.SplitThreshold != n.SplitThreshold {
		t.Error("expected node split to survive the round trip, got:", got)
	}
	if got.Prediction == nil {
		t.Fatal("expected node prediction to survive the round trip")
	}
	if got.Prediction.ProbabilityOf(7) != 0.75 {
		t.Error("expected probability of 7 to be: 0.75 got:", got.Prediction.ProbabilityOf(7))
	}
	if got.Prediction.Weight() != 4 {
		t.Error("expected prediction weight to be: 4 got:", got.Prediction.Weight())
	}
}
