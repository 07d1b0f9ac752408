/*
Package mongodataset provides an implementation of dataset.Dataset
that uses a MongoDB database as backend.
*/
package mongodataset

import (
	"context"
	"fmt"
	"math"
	"strings"

	"sapling/dataset"
	"sapling/feature"

	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Dataset is a dataset.Dataset to which samples can be added
and from which samples can be sequentially read
*/
type Dataset interface {
	dataset.Dataset
	Write(context.Context, []dataset.Sample) (int, error)
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type mongodataset struct {
	session    *mgo.Session
	features   []feature.Feature
	labelField string
	criteria   []feature.Criterion
	mongoQuery bson.M
	entropy    *float64
	count      *int
}

const (
	samplesCollectionName = "samples"
)

/*
Open takes a MongoDB database session, a slice of features and the name
of the label field and returns a Dataset that works on the samples
collection of the default database for that session or an error if it
fails to set it up.

Samples are stored as documents with one numeric field per feature and
an integer field for the label.
*/
func Open(ctx context.Context, session *mgo.Session, features []feature.Feature, labelField string) (Dataset, error) {
	mds := &mongodataset{session: session, features: features, labelField: labelField}
	err := mds.ensureIndexes()
	if err != nil {
		return nil, err
	}
	return mds, nil
}

func (mds *mongodataset) Count(context.Context) (int, error) {
	if mds.count != nil {
		return *mds.count, nil
	}
	result, err := mds.query().Count()
	if err == nil {
		mds.count = &result
	}
	return result, err
}

func (mds *mongodataset) Entropy(ctx context.Context) (float64, error) {
	if mds.entropy != nil {
		return *mds.entropy, nil
	}
	labelCounts, err := mds.LabelCounts(ctx)
	if err != nil {
		return 0.0, err
	}
	var count float64
	for _, c := range labelCounts {
		count += float64(c)
	}
	var result float64
	if count > 0 {
		for _, c := range labelCounts {
			if c == 0 {
				continue
			}
			probValue := float64(c) / count
			result -= probValue * math.Log2(probValue)
		}
	}
	mds.entropy = &result
	return result, nil
}

func (mds *mongodataset) LabelCounts(ctx context.Context) (map[int]int, error) {
	if mds.mongoQuery == nil {
		mds.query()
	}
	iter := mds.samplesCollection().Pipe([]bson.M{{"$match": mds.mongoQuery}, {"$group": bson.M{"_id": fmt.Sprintf("$%s", mds.labelField), "count": bson.M{"$sum": 1}}}}).Iter()
	defer iter.Close()
	var doc bson.M
	result := make(map[int]int)
	for iter.Next(&doc) {
		count, ok := doc["count"].(int)
		if !ok {
			return nil, fmt.Errorf("counting labels: mongo aggregation query returned a %T instead of an int as count", doc["count"])
		}
		label, err := intValue(doc["_id"])
		if err != nil {
			return nil, fmt.Errorf("counting labels: %v", err)
		}
		result[label] = count
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (mds *mongodataset) FeatureValues(ctx context.Context, f feature.Feature) ([]float64, error) {
	if mds.mongoQuery == nil {
		mds.query()
	}
	iter := mds.samplesCollection().Pipe([]bson.M{{"$match": mds.mongoQuery}, {"$group": bson.M{"_id": fmt.Sprintf("$%s", f.Name)}}}).Iter()
	defer iter.Close()
	var doc bson.M
	var result []float64
	for iter.Next(&doc) {
		v, err := floatValue(doc["_id"])
		if err != nil {
			return nil, fmt.Errorf("listing values of %s: %v", f.Name, err)
		}
		result = append(result, v)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (mds *mongodataset) SubsetWith(ctx context.Context, fc feature.Criterion) (dataset.Dataset, error) {
	criteria := make([]feature.Criterion, 0, len(mds.criteria)+1)
	criteria = append(criteria, mds.criteria...)
	criteria = append(criteria, fc)
	return &mongodataset{session: mds.session, features: mds.features, labelField: mds.labelField, criteria: criteria}, nil
}

func (mds *mongodataset) Samples(ctx context.Context) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	count, err := mds.Count(ctx)
	if err == nil {
		samples = make([]dataset.Sample, 0, count)
	}
	sampleChan, errs := mds.Read(ctx)
	for sample := range sampleChan {
		samples = append(samples, sample)
	}
	err = <-errs
	return samples, err
}

func (mds *mongodataset) Criteria(context.Context) ([]feature.Criterion, error) {
	return mds.criteria, nil
}

func (mds *mongodataset) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	docs := make([]interface{}, 0, len(samples))
	for i, s := range samples {
		if len(s.Values) != len(mds.features) {
			return 0, fmt.Errorf("%w: sample %d has %d values, expected %d", dataset.ErrInvalidInput, i, len(s.Values), len(mds.features))
		}
		doc := make(bson.M)
		for _, f := range mds.features {
			doc[f.Name] = s.Values[f.Index]
		}
		doc[mds.labelField] = s.Label
		docs = append(docs, doc)
	}
	err := mds.samplesCollection().Insert(docs...)
	if err != nil {
		return 0, err
	}
	return len(samples), nil
}

func (mds *mongodataset) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	samples := make(chan dataset.Sample)
	errs := make(chan error, 1)
	go func() {
		var doc bson.M
		var err error
		iter := mds.query().Iter()
		defer iter.Close()
		for iter.Next(&doc) {
			var s dataset.Sample
			s, err = mds.sampleFromDoc(doc)
			if err != nil {
				break
			}
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case samples <- s:
			}
			if err != nil {
				break
			}
		}
		if err == nil {
			err = iter.Err()
		}
		if err != nil {
			errs <- err
		}
		close(errs)
		close(samples)
	}()
	return samples, errs
}

func (mds *mongodataset) sampleFromDoc(doc bson.M) (dataset.Sample, error) {
	values := make([]float64, len(mds.features))
	for _, f := range mds.features {
		v, err := floatValue(doc[f.Name])
		if err != nil {
			return dataset.Sample{}, fmt.Errorf("reading value of %s: %v", f.Name, err)
		}
		values[f.Index] = v
	}
	label, err := intValue(doc[mds.labelField])
	if err != nil {
		return dataset.Sample{}, fmt.Errorf("reading label: %v", err)
	}
	return dataset.NewSample(values, label), nil
}

func (mds *mongodataset) ensureIndexes() error {
	for _, f := range mds.features {
		fName := f.Name
		if fName == "_id" {
			return fmt.Errorf("invalid feature name %q: reserved collection field", "_id")
		}
		if strings.ContainsAny(fName, ".$") {
			return fmt.Errorf("invalid feature name %q: contains reserved characters %q or %q", fName, ".", "$")
		}
		index := mgo.Index{
			Key:        []string{fName},
			Background: true,
			Sparse:     true,
		}
		err := mds.samplesCollection().EnsureIndex(index)
		if err != nil {
			return err
		}
	}
	return nil
}

func (mds *mongodataset) samplesCollection() *mgo.Collection {
	return mds.session.DB("").C(samplesCollectionName)
}

func (mds *mongodataset) query() *mgo.Query {
	if mds.mongoQuery == nil {
		mds.mongoQuery = make(bson.M)
		for _, fc := range mds.criteria {
			fName := fc.Feature().Name
			var rangeValue bson.M
			if v, ok := mds.mongoQuery[fName]; ok && v != nil {
				rangeValue = v.(bson.M)
			}
			if rangeValue == nil {
				rangeValue = make(bson.M)
			}
			switch fc.(type) {
			case *feature.LessEqual:
				v, ok := rangeValue["$lte"].(float64)
				if !ok || v > fc.Threshold() {
					rangeValue["$lte"] = fc.Threshold()
				}
			case *feature.GreaterThan:
				v, ok := rangeValue["$gt"].(float64)
				if !ok || v < fc.Threshold() {
					rangeValue["$gt"] = fc.Threshold()
				}
			}
			mds.mongoQuery[fName] = rangeValue
		}
	}
	return mds.samplesCollection().Find(mds.mongoQuery)
}

func floatValue(v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("cannot read %v (%T) as a number", v, v)
}

func intValue(v interface{}) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("cannot read %v (%T) as an integer", v, v)
}
