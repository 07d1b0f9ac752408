package dataset

import "fmt"

/*
Sample represents an item to learn from or to classify: a fixed-length
vector of numeric feature values paired with a discrete class label.
Categorical fields are expected to have been encoded to numbers and
missing values filled before the sample is built.
*/
type Sample struct {
	Values []float64
	Label  int
}

/*
NewSample takes a slice of feature values and a label and returns a
sample with them.
*/
func NewSample(values []float64, label int) Sample {
	return Sample{Values: values, Label: label}
}

/*
FromMatrix takes a feature matrix and an index-aligned label vector and
returns the corresponding slice of samples. It returns an error if the
two have different lengths or if the matrix rows are not all the same
width.
*/
func FromMatrix(x [][]float64, y []int) ([]Sample, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d samples but %d labels", ErrInvalidInput, len(x), len(y))
	}
	samples := make([]Sample, 0, len(x))
	for i, row := range x {
		if len(row) != len(x[0]) {
			return nil, fmt.Errorf("%w: sample %d has %d values, expected %d", ErrInvalidInput, i, len(row), len(x[0]))
		}
		samples = append(samples, Sample{Values: row, Label: y[i]})
	}
	return samples, nil
}

/*
Validate takes a slice of samples and returns an error unless every
sample has the same number of feature values.
*/
func Validate(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	width := len(samples[0].Values)
	for i, s := range samples {
		if len(s.Values) != width {
			return fmt.Errorf("%w: sample %d has %d values, expected %d", ErrInvalidInput, i, len(s.Values), width)
		}
	}
	return nil
}

func (s Sample) String() string {
	return fmt.Sprintf("[%v -> %d]", s.Values, s.Label)
}
