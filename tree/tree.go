package tree

import (
	"context"
	"fmt"
	"strings"

	"sapling/dataset"
	"sapling/feature"
)

// Tree represents a binary classification tree. It is composed of a
// NodeStore where all its nodes are stored, the id for the root node of
// the tree and the features its splits are expressed on, in index order.
type Tree struct {
	NodeStore
	RootID   string
	Features []feature.Feature
}

// New takes the ID for the root Node, a NodeStore and the slice of
// features the tree splits on and returns a tree composed of the nodes
// in the NodeStore connected to the node with the given root ID.
func New(rootID string, nodeStore NodeStore, features []feature.Feature) *Tree {
	return &Tree{nodeStore, rootID, features}
}

// Predict takes a sample's value vector and returns a prediction
// according to the tree and an error if the prediction could not be
// made. The vector is routed from the root comparing its value for each
// internal node's split feature against the node's threshold: lower or
// equal values descend left, greater values descend right. It returns a
// dataset.ErrInvalidInput error if the vector does not have a value for
// every feature of the tree.
func (t *Tree) Predict(ctx context.Context, values []float64) (*Prediction, error) {
	if t == nil {
		return nil, fmt.Errorf("nil tree cannot predict samples")
	}
	if len(values) != len(t.Features) {
		return nil, fmt.Errorf("%w: sample has %d values, tree predicts on %d features", dataset.ErrInvalidInput, len(values), len(t.Features))
	}
	n, err := t.Get(ctx, t.RootID)
	if err != nil {
		return nil, fmt.Errorf("predicting sample: retrieving node %v: %v", t.RootID, err)
	}
	if n == nil {
		return nil, fmt.Errorf("predicting sample: root node %v not found", t.RootID)
	}
	for !n.Leaf() {
		nextID := n.LeftID
		if values[n.SplitFeature] > n.SplitThreshold {
			nextID = n.RightID
		}
		next, err := t.Get(ctx, nextID)
		if err != nil {
			return nil, fmt.Errorf("predicting sample: retrieving node %v: %v", nextID, err)
		}
		if next == nil {
			return nil, fmt.Errorf("predicting sample: node %v not found", nextID)
		}
		n = next
	}
	if n.Prediction != nil {
		return n.Prediction, nil
	}
	return nil, ErrCannotPredictFromSample
}

// PredictLabel takes a sample's value vector and returns the label of
// the leaf the vector is routed to, using Predict.
func (t *Tree) PredictLabel(ctx context.Context, values []float64) (int, error) {
	p, err := t.Predict(ctx, values)
	if err != nil {
		return 0, err
	}
	label, _ := p.Label()
	return label, nil
}

/*
Test takes a context.Context and a dataset and returns three values:
 * the prediction success rate of the tree over the given dataset
 * the number of failing predictions because of ErrCannotPredictFromSample errors
 * an error if a prediction could not be made for reasons other than the tree not
   being able to do so. If this is not nil, the other values will be 0.0 and 0
   respectively
*/
func (t *Tree) Test(ctx context.Context, ds dataset.Dataset) (float64, int, error) {
	if t == nil {
		return 0.0, 0, nil
	}
	var result float64
	var errCount int
	samples, err := ds.Samples(ctx)
	if err != nil {
		return 0.0, 0, err
	}
	count, err := ds.Count(ctx)
	if err != nil {
		return 0.0, 0, err
	}
	if count == 0 {
		return 0.0, 0, nil
	}
	for _, sample := range samples {
		label, err := t.PredictLabel(ctx, sample.Values)
		if err != nil {
			if err != ErrCannotPredictFromSample {
				return 0.0, 0, err
			}
			errCount++
			continue
		}
		if label == sample.Label {
			result += 1.0
		}
	}
	result = result / float64(count)
	return result, errCount, nil
}

// Traverse takes a context, bottomup boolean and an
// error-returning function that takes a context and a node
// as parameters, and goes through the tree running the
// function with the context and every traversed node.
// Traverse will call the function with a parent node before
// calling it for its children if bottomup is false, and
// call it after its children if bottomup is true.
// If the given context times out or is cancelled, the context
// error is returned. If a node cannot be retrieved from the
// tree's node store, the obtained error is returned. If the
// call to the function returns an error, the traversing is
// aborted and the error is returned. Otherwise, when the
// traversing is over, nil is returned.
func (t *Tree) Traverse(ctx context.Context, bottomup bool, f func(context.Context, *Node) error) error {
	n, err := t.NodeStore.Get(ctx, t.RootID)
	if err != nil {
		return err
	}
	return t.traverse(ctx, n, bottomup, f)
}

func (t *Tree) traverse(ctx context.Context, n *Node, bottomup bool, f func(context.Context, *Node) error) error {
	err := ctx.Err()
	if err != nil {
		return err
	}
	if !bottomup {
		err = f(ctx, n)
		if err != nil {
			return err
		}
	}
	for _, snID := range []string{n.LeftID, n.RightID} {
		if snID == "" {
			continue
		}
		sn, err := t.NodeStore.Get(ctx, snID)
		if err != nil {
			return err
		}
		err = t.traverse(ctx, sn, bottomup, f)
		if err != nil {
			return err
		}
	}
	if bottomup {
		err = f(ctx, n)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) String() string {
	return t.subtreeString(t.RootID)
}

func (t *Tree) subtreeString(nodeID string) string {
	n, err := t.NodeStore.Get(context.TODO(), nodeID)
	if err != nil {
		return fmt.Sprintf("ERROR: %s\n", err.Error())
	}
	result := fmt.Sprintf("[%s]\n", nodeID)
	if !n.Leaf() {
		result = fmt.Sprintf("%s{ %v <= %f ? }\n", result, t.featureName(n.SplitFeature), n.SplitThreshold)
	}
	if n.Prediction != nil {
		result = fmt.Sprintf("%s{ %v }\n", result, n.Prediction)
	}
	subtreeIDs := []string{}
	for _, snID := range []string{n.LeftID, n.RightID} {
		if snID != "" {
			subtreeIDs = append(subtreeIDs, snID)
		}
	}
	if len(subtreeIDs) > 0 {
		result = fmt.Sprintf("%s|\n", result)
	} else {
		result = fmt.Sprintf("%s \n", result)
	}
	for i, subtreeID := range subtreeIDs {
		for j, line := range strings.Split(t.subtreeString(subtreeID), "\n") {
			if len(line) > 0 {
				if j == 0 {
					result = fmt.Sprintf("%s|__%s\n", result, line)
				} else {
					if i == len(subtreeIDs)-1 {
						result = fmt.Sprintf("%s   %s\n", result, line)
					} else {
						result = fmt.Sprintf("%s|  %s\n", result, line)
					}
				}
			}
		}
	}
	return result
}

func (t *Tree) featureName(index int) string {
	for _, f := range t.Features {
		if f.Index == index {
			return f.String()
		}
	}
	return fmt.Sprintf("feature[%d]", index)
}
