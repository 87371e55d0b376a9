// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statement

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

const (
	// table is used to substitute Table in template with actual table name
	table = "Table"
	// columns is used to substitute Columns in template with column names
	columns = "Columns"
	// assignments is used to substitute the SET clause of updates
	assignments = "Assignments"
	// conditions is used to indicate the key columns of the WHERE clause
	conditions = "Conditions"

	// insertTemplate is used to construct an insert query
	insertTemplate = `INSERT INTO {{.Table}} ({{ColumnFunc .Columns ", "}})` +
		` VALUES ({{QuestionMark .Columns ", "}});`

	// updateTemplate is used to construct an update query
	updateTemplate = `UPDATE {{.Table}} SET {{ColumnFunc .Assignments ", "}}` +
		`{{WhereFunc .Conditions}}{{ConditionsFunc .Conditions " AND "}};`

	// selectTemplate is used to construct an select query
	selectTemplate = `SELECT {{ColumnFunc .Columns ", "}} FROM {{.Table}}` +
		`{{WhereFunc .Conditions}}{{ConditionsFunc .Conditions " AND "}};`

	// deleteTemplate is used to construct a delete query
	deleteTemplate = `DELETE FROM {{.Table}}` +
		`{{WhereFunc .Conditions}}{{ConditionsFunc .Conditions " AND "}};`
)

var (
	// function map for populating CQL templates
	funcMap = template.FuncMap{
		"ColumnFunc":     strings.Join,
		"QuestionMark":   questionMarkFunc,
		"ConditionsFunc": conditionsFunc,
		"WhereFunc":      whereFunc,
	}

	insertTmpl = template.Must(
		template.New("insert").Funcs(funcMap).Parse(insertTemplate))
	updateTmpl = template.Must(
		template.New("update").Funcs(funcMap).Parse(updateTemplate))
	selectTmpl = template.Must(
		template.New("select").Funcs(funcMap).Parse(selectTemplate))
	deleteTmpl = template.Must(
		template.New("delete").Funcs(funcMap).Parse(deleteTemplate))
)

// questionMarkFunc adds one ? placeholder per column
func questionMarkFunc(qs []string, sep string) string {
	questions := make([]string, len(qs))
	for i := range qs {
		questions[i] = "?"
	}
	return strings.Join(questions, sep)
}

// conditionsFunc adds a =? condition per key column
func conditionsFunc(conds []string, sep string) string {
	cstrs := make([]string, len(conds))
	for i, cond := range conds {
		cstrs[i] = fmt.Sprintf("%s=?", cond)
	}
	return strings.Join(cstrs, sep)
}

// whereFunc adds where clause to the query
func whereFunc(conds []string) string {
	if len(conds) > 0 {
		return " WHERE "
	}
	return ""
}

// Option to compose a cql statement
type Option map[string]interface{}

// OptFunc is the interface to set option
type OptFunc func(Option)

// identifier quotes a table or column name. Names are folded to lower
// case, the way cassandra folds unquoted identifiers.
func identifier(name string) string {
	return strconv.Quote(strings.ToLower(name))
}

func quote(names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = identifier(n)
	}
	return quoted
}

// Table sets the `table` to the cql statement
func Table(v string) OptFunc {
	return func(opt Option) {
		opt[table] = identifier(v)
	}
}

// Columns sets the `columns` clause to the cql statement
func Columns(v []string) OptFunc {
	return func(opt Option) {
		opt[columns] = quote(v)
	}
}

// Set sets the `SET` clause of an update, one column=? per column
func Set(v []string) OptFunc {
	return func(opt Option) {
		opt[assignments] = conditionsList(quote(v))
	}
}

// Increment sets the `SET` clause of a counter update
func Increment(counter string) OptFunc {
	return func(opt Option) {
		c := identifier(counter)
		opt[assignments] = []string{fmt.Sprintf("%s=%s+?", c, c)}
	}
}

// Conditions set the `where` clause to the cql statement
func Conditions(v []string) OptFunc {
	return func(opt Option) {
		opt[conditions] = quote(v)
	}
}

func conditionsList(quoted []string) []string {
	out := make([]string, len(quoted))
	for i, c := range quoted {
		out[i] = c + "=?"
	}
	return out
}

func execute(tmpl *template.Template, opts []OptFunc) (string, error) {
	var bb bytes.Buffer
	option := Option{}
	for _, opt := range opts {
		opt(option)
	}
	err := tmpl.Execute(&bb, option)
	return bb.String(), err
}

// InsertStmt creates insert statement
func InsertStmt(opts ...OptFunc) (string, error) {
	return execute(insertTmpl, opts)
}

// UpdateStmt creates update statement
func UpdateStmt(opts ...OptFunc) (string, error) {
	return execute(updateTmpl, opts)
}

// SelectStmt creates select statement
func SelectStmt(opts ...OptFunc) (string, error) {
	return execute(selectTmpl, opts)
}

// DeleteStmt creates delete statement
func DeleteStmt(opts ...OptFunc) (string, error) {
	return execute(deleteTmpl, opts)
}
