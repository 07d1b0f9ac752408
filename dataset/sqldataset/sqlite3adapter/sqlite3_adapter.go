/*
Package sqlite3adapter provides an implementation of the
Adapter interface in the sqldataset package that works
over an SQLite3 database.
*/
package sqlite3adapter

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sapling/dataset/sqldataset"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

/*
MaxSampleInsertionsPerStatement is the maximum number
of samples that are allowed to be added with a single
insert command with the AddSamples method of the adapter.
Trying to add more will result in making more insertion commands
*/
const MaxSampleInsertionsPerStatement = 10

type adapter struct {
	db *sql.DB
}

/*
New takes a path to an SQLite3 database file and the maximum number of
open connections to it and returns an Adapter that works on the file's
database or an error if it fails to open as an sqlite3 database.
*/
func New(path string, maxConns int) (sqldataset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	return &adapter{db}, nil
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, featureColumns []string, labelColumn string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(")
	for _, c := range featureColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" REAL NULL, `, c))
	}
	createStmtBuf.WriteString(fmt.Sprintf(`"%s" INTEGER NOT NULL, `, labelColumn))
	createStmtBuf.WriteString(`"id" INTEGER PRIMARY KEY AUTOINCREMENT)`)
	createStmt, err := a.db.PrepareContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("preparing samples creation statement: %v", err)
	}
	defer createStmt.Close()
	_, err = createStmt.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %v", err)
	}
	return nil
}

func (a *adapter) AddSamples(ctx context.Context, values [][]float64, labels []int, featureColumns []string, labelColumn string) (int, error) {
	if len(values) != len(labels) {
		return 0, fmt.Errorf("%d value rows for %d labels", len(values), len(labels))
	}
	if len(values) == 0 {
		return 0, nil
	}
	width := len(featureColumns) + 1
	var added int
	for added < len(values) {
		chunkEnd := added + MaxSampleInsertionsPerStatement
		if chunkEnd > len(values) {
			chunkEnd = len(values)
		}
		chunk := values[added:chunkEnd]
		var insertStmtBuffer bytes.Buffer
		insertStmtBuffer.WriteString(`INSERT INTO samples ("`)
		insertStmtBuffer.WriteString(strings.Join(featureColumns, `", "`))
		if len(featureColumns) > 0 {
			insertStmtBuffer.WriteString(`", "`)
		}
		insertStmtBuffer.WriteString(labelColumn)
		insertStmtBuffer.WriteString(`") VALUES `)
		args := make([]interface{}, 0, len(chunk)*width)
		for i, row := range chunk {
			if len(row) != len(featureColumns) {
				return added, fmt.Errorf("sample %d has %d values instead of %d", added+i, len(row), len(featureColumns))
			}
			if i != 0 {
				insertStmtBuffer.WriteString(", ")
			}
			insertStmtBuffer.WriteString("(?")
			insertStmtBuffer.WriteString(strings.Repeat(", ?", width-1))
			insertStmtBuffer.WriteString(")")
			for _, v := range row {
				args = append(args, v)
			}
			args = append(args, labels[added+i])
		}
		_, err := a.db.ExecContext(ctx, insertStmtBuffer.String(), args...)
		if err != nil {
			return added, fmt.Errorf("inserting %d samples: %v", len(chunk), err)
		}
		added = chunkEnd
	}
	return added, nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, criteria []*sqldataset.Predicate, featureColumns []string, labelColumn string, lambda func(int, []float64, int) (bool, error)) error {
	var queryBuffer bytes.Buffer
	queryBuffer.WriteString(`SELECT "`)
	queryBuffer.WriteString(strings.Join(featureColumns, `", "`))
	if len(featureColumns) > 0 {
		queryBuffer.WriteString(`", "`)
	}
	queryBuffer.WriteString(labelColumn)
	queryBuffer.WriteString(`" FROM samples`)
	whereClause, whereValues := buildWhereClause(criteria)
	queryBuffer.WriteString(whereClause)
	rows, err := a.db.QueryContext(ctx, queryBuffer.String(), whereValues...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for j := 0; rows.Next(); j++ {
		featureValues := make([]sql.NullFloat64, len(featureColumns))
		var label int
		scanDest := make([]interface{}, 0, len(featureColumns)+1)
		for i := range featureValues {
			scanDest = append(scanDest, &featureValues[i])
		}
		scanDest = append(scanDest, &label)
		err = rows.Scan(scanDest...)
		if err != nil {
			return err
		}
		values := make([]float64, len(featureColumns))
		for i := range featureValues {
			if featureValues[i].Valid {
				values[i] = featureValues[i].Float64
			}
		}
		ok, err := lambda(j, values, label)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) CountSamples(ctx context.Context, criteria []*sqldataset.Predicate) (int, error) {
	var queryBuffer bytes.Buffer
	queryBuffer.WriteString(`SELECT COUNT(*) FROM samples`)
	whereClause, whereValues := buildWhereClause(criteria)
	queryBuffer.WriteString(whereClause)
	var count int
	err := a.db.QueryRowContext(ctx, queryBuffer.String(), whereValues...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (a *adapter) CountSampleLabels(ctx context.Context, labelColumn string, criteria []*sqldataset.Predicate) (map[int]int, error) {
	var queryBuffer bytes.Buffer
	queryBuffer.WriteString(fmt.Sprintf(`SELECT "%s", COUNT(*) FROM samples`, labelColumn))
	whereClause, whereValues := buildWhereClause(criteria)
	queryBuffer.WriteString(whereClause)
	queryBuffer.WriteString(fmt.Sprintf(` GROUP BY "%s"`, labelColumn))
	rows, err := a.db.QueryContext(ctx, queryBuffer.String(), whereValues...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int]int)
	for rows.Next() {
		var label, count int
		err = rows.Scan(&label, &count)
		if err != nil {
			return nil, err
		}
		result[label] = count
	}
	return result, rows.Err()
}

func (a *adapter) ListSampleFeatureValues(ctx context.Context, column string, criteria []*sqldataset.Predicate) ([]float64, error) {
	var queryBuffer bytes.Buffer
	queryBuffer.WriteString(fmt.Sprintf(`SELECT DISTINCT "%s" FROM samples`, column))
	whereClause, whereValues := buildWhereClause(criteria)
	queryBuffer.WriteString(whereClause)
	rows, err := a.db.QueryContext(ctx, queryBuffer.String(), whereValues...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []float64
	for rows.Next() {
		var value sql.NullFloat64
		err = rows.Scan(&value)
		if err != nil {
			return nil, err
		}
		if value.Valid {
			result = append(result, value.Float64)
		}
	}
	return result, rows.Err()
}

func buildWhereClause(criteria []*sqldataset.Predicate) (string, []interface{}) {
	if len(criteria) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	values := make([]interface{}, 0, len(criteria))
	buf.WriteString(" WHERE ")
	buf.WriteString(fmt.Sprintf(`"%s" %s ?`, criteria[0].Column, criteria[0].Operator))
	values = append(values, criteria[0].Value)
	for i := 1; i < len(criteria); i++ {
		buf.WriteString(fmt.Sprintf(` AND "%s" %s ?`, criteria[i].Column, criteria[i].Operator))
		values = append(values, criteria[i].Value)
	}
	return buf.String(), values
}
