/*
Package sqldataset provides implementations of dataset.Dataset
that use SQL databases as backends.

The dataset uses a single samples table, with one numeric column
per feature and an integer column for the sample labels. Subsets
are represented as conditions on the WHERE clause of the SELECT
statements run against the table, so subsetting a dataset does
not copy any samples.
*/
package sqldataset
