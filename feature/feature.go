package feature

import "fmt"

/*
Feature represents a property that can be observed on every sample of a
dataset: a fixed position in the sample's value vector plus a name to
present it with.
*/
type Feature struct {
	Index int
	Name  string
}

/*
New takes an index and a name and returns a feature with them.
*/
func New(index int, name string) Feature {
	return Feature{Index: index, Name: name}
}

/*
List takes a slice of name strings and returns a slice of features
whose indices match the positions of the names on the given slice.
*/
func List(names []string) []Feature {
	features := make([]Feature, 0, len(names))
	for i, n := range names {
		features = append(features, Feature{Index: i, Name: n})
	}
	return features
}

/*
Names takes a slice of features and returns a slice with their names
in the same order.
*/
func Names(features []Feature) []string {
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.Name)
	}
	return names
}

func (f Feature) String() string {
	if f.Name == "" {
		return fmt.Sprintf("feature[%d]", f.Index)
	}
	return f.Name
}
