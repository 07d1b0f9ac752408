/*
Package inputsample provides a way to read the feature values of a
sample to classify from an io.Reader, prompting for them one by one.
*/
package inputsample

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"sapling/feature"
)

/*
SampleReader represents a way to obtain the value vector of
a sample to classify.
*/
type SampleReader interface {
	// Read returns a value vector with one value per feature,
	// in feature index order, or an error.
	Read(context.Context) ([]float64, error)
}

/*
FeatureValueRequester represents a way to ask
for feature values and reject the given values.
*/
type FeatureValueRequester interface {
	RequestValueFor(feature.Feature) error
	RejectValueFor(feature.Feature, string) error
}

/*
Encodings maps a feature name to the categorical values accepted
for it and their numeric encoding. Features without an entry only
accept numbers.
*/
type Encodings map[string]map[string]float64

type readSample struct {
	scanner               *bufio.Scanner
	features              []feature.Feature
	encodings             Encodings
	featureValueRequester FeatureValueRequester
	undefinedValue        string
	fill                  float64
}

/*
New takes an io.Reader, a slice of features, the encodings for the
categorical features, a FeatureValueRequester, an undefinedValue coding
string and a fill value, and returns a SampleReader.

The returned SampleReader Read method obtains feature values first
requesting them with the given FeatureValueRequester and then parsing
the values from the reader.

The parsing expects each value to be presented ending with the
'\n' character, that is in new lines. Also, the undefinedValue
string followed by the '\n' character will be interpreted as an
undefined value, which takes the given fill value.

For a feature with an encoding, lines will be read from the reader
until a line containing one of the encoded categorical values or a
valid float64 number is found. For any other feature, lines will be
read until a line containing a valid float64 number is found.
Non-accepted values will be rejected with the FeatureValueRequester's
RejectValueFor method.
*/
func New(r io.Reader, features []feature.Feature, encodings Encodings, featureValueRequester FeatureValueRequester, undefinedValue string, fill float64) SampleReader {
	scanner := bufio.NewScanner(r)
	return &readSample{scanner, features, encodings, featureValueRequester, undefinedValue, fill}
}

func (rs *readSample) Read(ctx context.Context) ([]float64, error) {
	values := make([]float64, len(rs.features))
	for _, f := range rs.features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := rs.readFeature(f)
		if err != nil {
			return nil, err
		}
		values[f.Index] = v
	}
	return values, nil
}

func (rs *readSample) readFeature(f feature.Feature) (float64, error) {
	err := rs.featureValueRequester.RequestValueFor(f)
	if err != nil {
		return 0, err
	}
	encoding := rs.encodings[f.Name]
	for rs.scanner.Scan() {
		line := rs.scanner.Text()
		if line == rs.undefinedValue {
			return rs.fill, nil
		}
		if encoding != nil {
			if v, ok := encoding[line]; ok {
				return v, nil
			}
		}
		v, err := strconv.ParseFloat(line, 64)
		if err == nil {
			return v, nil
		}
		err = rs.featureValueRequester.RejectValueFor(f, line)
		if err != nil {
			return 0, err
		}
	}
	err = rs.scanner.Err()
	if err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("EOF when requesting value for %s", f.Name)
}

/*
WriterFeatureValueRequester returns a FeatureValueRequester that
writes its requests and rejections on the given io.Writer.
*/
func WriterFeatureValueRequester(w io.Writer, undefinedValue string) FeatureValueRequester {
	return &writerRequester{w, undefinedValue}
}

type writerRequester struct {
	w              io.Writer
	undefinedValue string
}

func (wr *writerRequester) RequestValueFor(f feature.Feature) error {
	_, err := fmt.Fprintf(wr.w, "Please provide the value for %s (%q if undefined): ", f.Name, wr.undefinedValue)
	return err
}

func (wr *writerRequester) RejectValueFor(f feature.Feature, value string) error {
	_, err := fmt.Fprintf(wr.w, "%q is not a valid value for %s. Please provide a new value: ", value, f.Name)
	return err
}
