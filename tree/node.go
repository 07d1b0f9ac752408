package tree

/*
Node is a node of the tree
*/
type Node struct {
	// An ID to identify the node
	ID string
	// The ID for the parent of the node in the tree
	ParentID string
	// The IDs for the nodes holding the samples whose value for the
	// split feature is lower than or equal to the threshold (left) and
	// strictly greater than it (right). Both are empty on leaves and
	// both are set on internal nodes.
	LeftID  string
	RightID string
	// The index of the feature the node splits on. Only meaningful on
	// internal nodes.
	SplitFeature int
	// The value the split feature is compared against to route samples
	// to the left or right subtree. Only meaningful on internal nodes.
	SplitThreshold float64
	// The prediction for samples that reached this node from the root
	// of the tree. Set on every developed node so that leaves can answer
	// queries and internal nodes can be inspected.
	Prediction *Prediction
}

// Leaf returns whether the node is a leaf, that is, whether it has no
// subtrees.
func (n *Node) Leaf() bool {
	return n.LeftID == "" && n.RightID == ""
}
