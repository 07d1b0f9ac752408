package queue

import (
	"fmt"

	"sapling/dataset"
	"sapling/feature"
	"sapling/tree"
)

// Task represents a tree.Node to be developed
// on a tree.Tree.
type Task struct {
	// The node to be developed
	Node *tree.Node
	// The dataset of training data with samples
	// satisfying the split criteria on the path from
	// the root of the tree to the node.
	Dataset dataset.Dataset
	// The features that can be used to split the
	// node into branches. A feature used for a split
	// stays eligible below it, so deeper nodes can
	// split on the same feature with a different
	// threshold.
	EligibleFeatures []feature.Feature
	// The majority label of the parent node's
	// dataset, answered by the node if its own
	// dataset turns out to be empty.
	FallbackLabel int
}

// ID returns a string that identifies the
// task, the ID of its Node.
func (t *Task) ID() string {
	return t.Node.ID
}

func (t *Task) String() string {
	return fmt.Sprintf("{Task %s}", t.Node.ID)
}
