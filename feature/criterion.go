package feature

import "fmt"

/*
Criterion represents a binary threshold constraint on a feature.

Its SatisfiedBy method takes a sample's value vector and returns a boolean
indicating if the vector satisfies the criterion, or an error if the vector
does not define a value for the criterion's feature.

Its Feature method returns the feature on which the criterion is applied and
its Threshold method the value the feature is compared against.
*/
type Criterion interface {
	Feature() Feature
	Threshold() float64
	SatisfiedBy(values []float64) (bool, error)
}

/*
LessEqual is a Criterion satisfied by samples whose value for the feature
is lower than or equal to the threshold. It selects the left branch of a
split.
*/
type LessEqual struct {
	feature   Feature
	threshold float64
}

/*
GreaterThan is a Criterion satisfied by samples whose value for the feature
is strictly greater than the threshold. It selects the right branch of a
split.
*/
type GreaterThan struct {
	feature   Feature
	threshold float64
}

/*
NewLessEqual takes a feature and a threshold and returns a LessEqual
criterion on them.
*/
func NewLessEqual(f Feature, threshold float64) *LessEqual {
	return &LessEqual{f, threshold}
}

/*
NewGreaterThan takes a feature and a threshold and returns a GreaterThan
criterion on them.
*/
func NewGreaterThan(f Feature, threshold float64) *GreaterThan {
	return &GreaterThan{f, threshold}
}

/*
Feature returns the feature to which the constraint applies.
*/
func (c *LessEqual) Feature() Feature {
	return c.feature
}

/*
Threshold returns the value the feature is compared against.
*/
func (c *LessEqual) Threshold() float64 {
	return c.threshold
}

/*
SatisfiedBy receives a value vector as parameter and returns a boolean
indicating if its value for the criterion's feature is lower than or equal
to the threshold. It returns an error if the vector has no position for the
feature.
*/
func (c *LessEqual) SatisfiedBy(values []float64) (bool, error) {
	if c.feature.Index < 0 || c.feature.Index >= len(values) {
		return false, fmt.Errorf("sample with %d values defines no value for %v", len(values), c.feature)
	}
	return values[c.feature.Index] <= c.threshold, nil
}

func (c *LessEqual) String() string {
	return fmt.Sprintf("%v <= %f", c.feature, c.threshold)
}

/*
Feature returns the feature to which the constraint applies.
*/
func (c *GreaterThan) Feature() Feature {
	return c.feature
}

/*
Threshold returns the value the feature is compared against.
*/
func (c *GreaterThan) Threshold() float64 {
	return c.threshold
}

/*
SatisfiedBy receives a value vector as parameter and returns a boolean
indicating if its value for the criterion's feature is strictly greater
than the threshold. It returns an error if the vector has no position for
the feature.
*/
func (c *GreaterThan) SatisfiedBy(values []float64) (bool, error) {
	if c.feature.Index < 0 || c.feature.Index >= len(values) {
		return false, fmt.Errorf("sample with %d values defines no value for %v", len(values), c.feature)
	}
	return values[c.feature.Index] > c.threshold, nil
}

func (c *GreaterThan) String() string {
	return fmt.Sprintf("%v > %f", c.feature, c.threshold)
}
