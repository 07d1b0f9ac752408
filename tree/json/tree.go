package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"sapling/feature"
	"sapling/tree"
)

type jsonTree struct {
	RootID   string            `json:"root"`
	Features []string          `json:"features"`
	Nodes    []json.RawMessage `json:"nodes"`
}

/*
WriteJSONTree takes a context, an io.Writer and a tree.Tree and prints
a JSON representation of the tree onto the writer.
A tree is serialized as a JSON object with the following fields:
  - "root": a string with the ID of the node at the root of the tree
  - "features": an array with the names of the features the tree splits
    on, in index order
  - "nodes": an array containing the nodes that can be traversed on the
    tree, serialized by a NodeEncodeDecoder.

An error is returned if the tree cannot be traversed, serialized or
written onto the io.Writer.
*/
func WriteJSONTree(ctx context.Context, w io.Writer, t *tree.Tree) error {
	ned := NewNodeEncodeDecoder()
	jt := &jsonTree{RootID: t.RootID, Features: feature.Names(t.Features)}
	err := t.Traverse(ctx, false, func(ctx context.Context, n *tree.Node) error {
		data, err := ned.Encode(n)
		if err != nil {
			return err
		}
		jt.Nodes = append(jt.Nodes, json.RawMessage(data))
		return nil
	})
	if err != nil {
		return fmt.Errorf("serializing tree as JSON: %v", err)
	}
	err = json.NewEncoder(w).Encode(jt)
	if err != nil {
		return fmt.Errorf("serializing tree as JSON: %v", err)
	}
	return nil
}

/*
WriteJSONTreeToFile takes a context, a filepath string and a tree.Tree
and tries to create a file on the given filepath and later use
WriteJSONTree to write a JSON representation of the tree on it.
It returns an error if the file cannot be opened for writing or
serialization or printing fails, nil otherwise.
*/
func WriteJSONTreeToFile(ctx context.Context, filepath string, t *tree.Tree) error {
	f, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSONTree(ctx, f, t)
}

/*
ReadJSONTree takes a context, an io.Reader and a tree.NodeStore and
attempts to JSON-decode a tree from the reader, storing its nodes on
the given node store. It returns the read tree or an error.
*/
func ReadJSONTree(ctx context.Context, r io.Reader, ns tree.NodeStore) (*tree.Tree, error) {
	jt := &jsonTree{}
	err := json.NewDecoder(r).Decode(jt)
	if err != nil {
		return nil, fmt.Errorf("decoding json tree: %v", err)
	}
	if jt.RootID == "" {
		return nil, fmt.Errorf("decoding json tree: no root node id available")
	}
	ned := NewNodeEncodeDecoder()
	for _, data := range jt.Nodes {
		n, err := ned.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decoding json tree: %v", err)
		}
		err = ns.Store(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("decoding json tree: storing node %q: %v", n.ID, err)
		}
	}
	return tree.New(jt.RootID, ns, feature.List(jt.Features)), nil
}

/*
ReadJSONTreeFromFile takes a context, a filepath string and a
tree.NodeStore, tries to open the file on the given filepath and uses
ReadJSONTree to decode a tree from it. It returns the read tree or an
error.
*/
func ReadJSONTreeFromFile(ctx context.Context, filepath string, ns tree.NodeStore) (*tree.Tree, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONTree(ctx, f, ns)
}
