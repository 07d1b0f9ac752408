package sqldataset

import (
	"fmt"

	"sapling/feature"
)

/*
Predicate is used to represent feature.Criterion
on SQL DB-backed datasets. It should be easily
translatable to a condition on an SQL SELECT
statement's WHERE clause on a samples table.
*/
type Predicate struct {
	/*
		Column is the column name for the feature
		the predicate is applying the restriction to.
	*/
	Column string
	/*
		Operator is a string representing the
		comparison against the value in the predicate
		that is applied to samples. It is either "<="
		or ">". The semantics are the result from
		reading the predicate as Column Operator Value.
	*/
	Operator string
	/*
		Value is the value against which the comparison
		is applied to samples.
	*/
	Value float64
}

/*
ColumnNameFunc is a function that takes the name of a
feature and returns the column name for it or an error if
the name could not be transformed.
*/
type ColumnNameFunc func(string) (string, error)

/*
NewPredicate takes a feature.Criterion and a ColumnNameFunc and returns
a Predicate equivalent to the given feature.Criterion or an error.

An error will be returned if the ColumnNameFunc cannot provide a name
for the feature of the criterion or the criterion is of an unknown kind.
*/
func NewPredicate(fc feature.Criterion, cnf ColumnNameFunc) (*Predicate, error) {
	columnName, err := cnf(fc.Feature().Name)
	if err != nil {
		return nil, fmt.Errorf("cannot obtain column name for feature '%s': %v", fc.Feature().Name, err)
	}
	switch fc.(type) {
	case *feature.LessEqual:
		return &Predicate{columnName, "<=", fc.Threshold()}, nil
	case *feature.GreaterThan:
		return &Predicate{columnName, ">", fc.Threshold()}, nil
	}
	return nil, fmt.Errorf("unknown type of feature.Criterion %T", fc)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("%s %s %f", p.Column, p.Operator, p.Value)
}
