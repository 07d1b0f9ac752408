package tree

import (
	"context"
	"errors"
	"testing"

	"sapling/dataset"
	"sapling/feature"
)

func testTree(t *testing.T) *Tree {
	t.Helper()
	ctx := context.Background()
	ns := NewMemoryNodeStore()
	left, err := NewPrediction(map[int]int{0: 3})
	if err != nil {
		t.Fatal("building prediction:", err)
	}
	right, err := NewPrediction(map[int]int{1: 2, 0: 1})
	if err != nil {
		t.Fatal("building prediction:", err)
	}
	leftNode := &Node{Prediction: left}
	rightNode := &Node{Prediction: right}
	for _, n := range []*Node{leftNode, rightNode} {
		if err := ns.Create(ctx, n); err != nil {
			t.Fatal("creating node:", err)
		}
	}
	root := &Node{
		LeftID:         leftNode.ID,
		RightID:        rightNode.ID,
		SplitFeature:   1,
		SplitThreshold: 2.5,
	}
	if err := ns.Create(ctx, root); err != nil {
		t.Fatal("creating node:", err)
	}
	leftNode.ParentID = root.ID
	rightNode.ParentID = root.ID
	return New(root.ID, ns, feature.List([]string{"age", "fare"}))
}

func TestTreePredict(t *testing.T) {
	ctx := context.Background()
	tr := testTree(t)

	p, err := tr.Predict(ctx, []float64{10, 2.5})
	if err != nil {
		t.Fatal("predicting sample:", err)
	}
	label, prob := p.Label()
	if label != 0 {
		t.Error("expected values on the threshold to route left to label 0, got:", label)
	}
	if prob != 1.0 {
		t.Error("expected probability to be: 1.0 got:", prob)
	}

	p, err = tr.Predict(ctx, []float64{10, 2.6})
	if err != nil {
		t.Fatal("predicting sample:", err)
	}
	label, prob = p.Label()
	if label != 1 {
		t.Error("expected values over the threshold to route right to label 1, got:", label)
	}
	if prob != 2.0/3.0 {
		t.Error("expected probability to be:", 2.0/3.0, "got:", prob)
	}
}

func TestTreePredictWidthMismatch(t *testing.T) {
	ctx := context.Background()
	tr := testTree(t)

	_, err := tr.Predict(ctx, []float64{10})
	if !errors.Is(err, dataset.ErrInvalidInput) {
		t.Error("expected an invalid input error, got:", err)
	}
	_, err = tr.Predict(ctx, []float64{10, 2.5, 3})
	if !errors.Is(err, dataset.ErrInvalidInput) {
		t.Error("expected an invalid input error, got:", err)
	}
}

func TestTreeTest(t *testing.T) {
	ctx := context.Background()
	tr := testTree(t)
	samples, err := dataset.FromMatrix(
		[][]float64{{1, 1}, {1, 2}, {1, 3}, {1, 4}},
		[]int{0, 0, 1, 0},
	)
	if err != nil {
		t.Fatal("building samples:", err)
	}

	successRate, errCount, err := tr.Test(ctx, dataset.New(samples))
	if err != nil {
		t.Fatal("testing tree:", err)
	}
	if errCount != 0 {
		t.Error("expected no prediction failures, got:", errCount)
	}
	if successRate != 0.75 {
		t.Error("expected success rate to be: 0.75 got:", successRate)
	}
}

func TestTreeTestEmptyDataset(t *testing.T) {
	ctx := context.Background()
	tr := testTree(t)

	successRate, errCount, err := tr.Test(ctx, dataset.New(nil))
	if err != nil {
		t.Fatal("testing tree:", err)
	}
	if successRate != 0.0 || errCount != 0 {
		t.Error("expected 0.0 success rate and 0 failures on an empty dataset, got:", successRate, "and", errCount)
	}
}

func TestTreeTraverse(t *testing.T) {
	ctx := context.Background()
	tr := testTree(t)

	var visited []string
	err := tr.Traverse(ctx, false, func(ctx context.Context, n *Node) error {
		visited = append(visited, n.ID)
		return nil
	})
	if err != nil {
		t.Fatal("traversing tree:", err)
	}
	if len(visited) != 3 {
		t.Fatal("expected to traverse 3 nodes, got:", len(visited))
	}
	if visited[0] != tr.RootID {
		t.Error("expected top-down traverse to visit the root first, got:", visited[0])
	}

	visited = nil
	err = tr.Traverse(ctx, true, func(ctx context.Context, n *Node) error {
		visited = append(visited, n.ID)
		return nil
	})
	if err != nil {
		t.Fatal("traversing tree:", err)
	}
	if visited[len(visited)-1] != tr.RootID {
		t.Error("expected bottom-up traverse to visit the root last, got:", visited[len(visited)-1])
	}
}

func TestMemoryNodeStore(t *testing.T) {
	ctx := context.Background()
	ns := NewMemoryNodeStore()

	n := &Node{}
	if err := ns.Create(ctx, n); err != nil {
		t.Fatal("creating node:", err)
	}
	if n.ID == "" {
		t.Fatal("expected Create to assign the node an ID")
	}

	n.SplitThreshold = 4.2
	if err := ns.Store(ctx, n); err != nil {
		t.Fatal("storing node:", err)
	}
	got, err := ns.Get(ctx, n.ID)
	if err != nil {
		t.Fatal("retrieving node:", err)
	}
	if got == nil || got.SplitThreshold != 4.2 {
		t.Error("expected to retrieve the stored node, got:", got)
	}

	missing, err := ns.Get(ctx, "no-such-node")
	if err != nil {
		t.Fatal("retrieving missing node:", err)
	}
	if missing != nil {
		t.Error("expected a nil node for an unknown id, got:", missing)
	}

	if err := ns.Delete(ctx, n); err != nil {
		t.Fatal("deleting node:", err)
	}
	got, err = ns.Get(ctx, n.ID)
	if err != nil {
		t.Fatal("retrieving deleted node:", err)
	}
	if got != nil {
		t.Error("expected a nil node after deletion, got:", got)
	}
}

func TestPredictionLabelTieBreak(t *testing.T) {
	p, err := NewPrediction(map[int]int{5: 2, 1: 2})
	if err != nil {
		t.Fatal("building prediction:", err)
	}
	label, prob := p.Label()
	if label != 1 {
		t.Error("expected tie to resolve to the smallest label 1, got:", label)
	}
	if prob != 0.5 {
		t.Error("expected probability to be: 0.5 got:", prob)
	}
}

func TestPredictionFromEmptyCounts(t *testing.T) {
	_, err := NewPrediction(map[int]int{})
	if err != ErrCannotPredictFromEmptySet {
		t.Error("expected an empty set prediction error, got:", err)
	}
}
