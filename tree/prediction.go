package tree

import (
	"context"
	"fmt"
	"strings"

	"sapling/dataset"
)

/*
Prediction represents a prediction made by a decision tree: the
distribution of labels over the training samples that reached a node.
*/
type Prediction struct {
	probabilities map[int]float64
	weight        int
}

// PredictionError represents an error related with predictions
type PredictionError string

/*
ErrCannotPredictFromSample is the error returned by the Predict method of a tree
when the prediction cannot be made because the tree itself cannot make
a prediction for that kind of sample.
*/
const ErrCannotPredictFromSample = PredictionError("no prediction available for this kind of sample")

/*
ErrCannotPredictFromEmptySet is the error returned when trying to build a prediction
based on an empty dataset.
*/
const ErrCannotPredictFromEmptySet = PredictionError("cannot make prediction for empty dataset")

func (pe PredictionError) Error() string {
	return string(pe)
}

/*
NewPrediction takes a map of label to sample count and returns a
prediction representing the label distribution the counts describe, with
a weight equal to the total count. It returns
ErrCannotPredictFromEmptySet if the counts add up to zero.
*/
func NewPrediction(counts map[int]int) (*Prediction, error) {
	var weight int
	for _, c := range counts {
		weight += c
	}
	if weight == 0 {
		return nil, ErrCannotPredictFromEmptySet
	}
	probs := make(map[int]float64)
	for label, c := range counts {
		if c > 0 {
			probs[label] = float64(c) / float64(weight)
		}
	}
	return &Prediction{probabilities: probs, weight: weight}, nil
}

/*
NewPredictionFromProbabilities takes a map of label to probability and a
weight and returns a prediction with them. It is meant to rebuild
predictions from their serialized form.
*/
func NewPredictionFromProbabilities(probabilities map[int]float64, weight int) *Prediction {
	return &Prediction{probabilities: probabilities, weight: weight}
}

/*
NewFallbackPrediction takes a label and returns a prediction that
predicts the label with probability 1 and weight 0. It is used for
leaves whose training subset is empty and that answer with the majority
label of their parent instead.
*/
func NewFallbackPrediction(label int) *Prediction {
	return &Prediction{probabilities: map[int]float64{label: 1.0}, weight: 0}
}

// NewPredictionFromDataset takes a context and a dataset and returns
// a prediction based on the label distribution of the (training) data in
// the dataset, or an error if there are no samples in the dataset or the
// dataset cannot be queried.
func NewPredictionFromDataset(ctx context.Context, ds dataset.Dataset) (*Prediction, error) {
	counts, err := ds.LabelCounts(ctx)
	if err != nil {
		return nil, err
	}
	return NewPrediction(counts)
}

/*
ProbabilityOf takes a label and returns the float64 probability of that
label according to the prediction.
*/
func (p *Prediction) ProbabilityOf(label int) float64 {
	return p.probabilities[label]
}

/*
Probabilities returns a map of label to float64 containing
the probabilities of each predicted label
*/
func (p *Prediction) Probabilities() map[int]float64 {
	return p.probabilities
}

/*
Weight returns the weight of the prediction: an
int equal to the number of samples in the dataset from which
the prediction was made
*/
func (p *Prediction) Weight() int {
	return p.weight
}

/*
Label returns the most probable label and its probability. Probability
ties are broken towards the smallest label value so the result is
deterministic.
*/
func (p *Prediction) Label() (label int, prob float64) {
	first := true
	for k, v := range p.probabilities {
		if first || v > prob || (v == prob && k < label) {
			label = k
			prob = v
			first = false
		}
	}
	return
}

func (p *Prediction) String() string {
	return strings.Replace(fmt.Sprintf("%v", p.probabilities), "map", "", 1)
}
