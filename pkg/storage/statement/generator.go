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

// Package statement generates the CQL text of the statements issued for an
// entity and caches them so that each is prepared once.
package statement

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/pkg/errors"
)

// Names of the table holding simple counters, shared by every entity
const (
	CounterTable        = "achilles_counter_table"
	CounterFQCN         = "fqcn"
	CounterPrimaryKey   = "primary_key"
	CounterPropertyName = "property_name"
	CounterValue        = "counter_value"
)

// Kind is the kind of a generated statement
type Kind int

// Statement kinds
const (
	Insert Kind = iota + 1
	Update
	SelectEager
	SelectProperty
	Delete
	SimpleCounterIncr
	SimpleCounterSelect
	SimpleCounterDelete
	ClusteredCounterIncr
	ClusteredCounterSelect
	ClusteredCounterDelete
	TypedQuery
)

var _kindNames = map[Kind]string{
	Insert:                 "insert",
	Update:                 "update",
	SelectEager:            "select",
	SelectProperty:         "select_property",
	Delete:                 "delete",
	SimpleCounterIncr:      "simple_counter_incr",
	SimpleCounterSelect:    "simple_counter_select",
	SimpleCounterDelete:    "simple_counter_delete",
	ClusteredCounterIncr:   "clustered_counter_incr",
	ClusteredCounterSelect: "clustered_counter_select",
	ClusteredCounterDelete: "clustered_counter_delete",
	TypedQuery:             "typed_query",
}

// String returns the name of the kind, used as a metric tag
func (k Kind) String() string {
	if name, ok := _kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsRead returns true for the statements returning rows
func (k Kind) IsRead() bool {
	switch k {
	case SelectEager, SelectProperty, SimpleCounterSelect, ClusteredCounterSelect, TypedQuery:
		return true
	}
	return false
}

// Prepared is a generated statement. It implements binder.PreparedStatement.
type Prepared struct {
	Kind    Kind
	Table   string
	Columns []string
	query   string
}

// Query returns the CQL text of the statement
func (p *Prepared) Query() string {
	return p.query
}

// String implements fmt.Stringer
func (p *Prepared) String() string {
	return p.query
}

// NewTypedQuery wraps a user supplied select on table. Typed queries are
// not cached.
func NewTypedQuery(table, query string) *Prepared {
	return &Prepared{Kind: TypedQuery, Table: table, query: query}
}

// Generator renders and caches statements. It is safe for concurrent use.
type Generator struct {
	sync.RWMutex
	cache map[string]*Prepared
}

// NewGenerator creates a Generator
func NewGenerator() *Generator {
	return &Generator{cache: make(map[string]*Prepared)}
}

func cacheKey(kind Kind, table string, columns []string) string {
	return fmt.Sprintf("%d|%s|%s", kind, table, strings.Join(columns, ","))
}

// get returns the cached statement or renders it with render
func (g *Generator) get(
	kind Kind,
	table string,
	columns []string,
	render func() (string, error),
) (*Prepared, error) {
	key := cacheKey(kind, table, columns)

	g.RLock()
	p, ok := g.cache[key]
	g.RUnlock()
	if ok {
		return p, nil
	}

	query, err := render()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render %s statement on %s", kind, table)
	}
	p = &Prepared{Kind: kind, Table: table, Columns: columns, query: query}

	g.Lock()
	defer g.Unlock()
	if cached, ok := g.cache[key]; ok {
		return cached, nil
	}
	g.cache[key] = p
	return p, nil
}

// Insert returns the insert of every column but the counters, in the order
// values are bound by the binder.
func (g *Generator) Insert(em *metadata.EntityMeta) (*Prepared, error) {
	cols := append(append([]string{}, em.KeyColumns()...),
		em.ColumnsOf(em.AllMetasExceptIDAndCounters())...)
	return g.get(Insert, em.TableName, cols, func() (string, error) {
		return InsertStmt(Table(em.TableName), Columns(cols))
	})
}

// Update returns the update of props, keyed by the primary key
func (g *Generator) Update(em *metadata.EntityMeta, props []*metadata.PropertyMeta) (*Prepared, error) {
	if len(props) == 0 {
		return nil, fmt.Errorf("no property to update on %s", em.TableName)
	}
	cols := em.ColumnsOf(props)
	return g.get(Update, em.TableName, cols, func() (string, error) {
		return UpdateStmt(Table(em.TableName), Set(cols), Conditions(em.KeyColumns()))
	})
}

// SelectEager returns the select of the eager columns by primary key
func (g *Generator) SelectEager(em *metadata.EntityMeta) (*Prepared, error) {
	cols := em.ColumnsForSelect()
	return g.get(SelectEager, em.TableName, cols, func() (string, error) {
		return SelectStmt(Table(em.TableName), Columns(cols), Conditions(em.KeyColumns()))
	})
}

// SelectProperty returns the select of one column by primary key
func (g *Generator) SelectProperty(em *metadata.EntityMeta, pm *metadata.PropertyMeta) (*Prepared, error) {
	cols := em.ColumnsOf([]*metadata.PropertyMeta{pm})
	return g.get(SelectProperty, em.TableName, cols, func() (string, error) {
		return SelectStmt(Table(em.TableName), Columns(cols), Conditions(em.KeyColumns()))
	})
}

// Delete returns the delete by primary key
func (g *Generator) Delete(em *metadata.EntityMeta) (*Prepared, error) {
	return g.get(Delete, em.TableName, nil, func() (string, error) {
		return DeleteStmt(Table(em.TableName), Conditions(em.KeyColumns()))
	})
}

var _counterKey = []string{CounterFQCN, CounterPrimaryKey, CounterPropertyName}

// SimpleCounterIncr returns the increment of a row of the counter table
func (g *Generator) SimpleCounterIncr() (*Prepared, error) {
	return g.get(SimpleCounterIncr, CounterTable, nil, func() (string, error) {
		return UpdateStmt(Table(CounterTable), Increment(CounterValue), Conditions(_counterKey))
	})
}

// SimpleCounterSelect returns the select of a row of the counter table
func (g *Generator) SimpleCounterSelect() (*Prepared, error) {
	cols := []string{CounterValue}
	return g.get(SimpleCounterSelect, CounterTable, cols, func() (string, error) {
		return SelectStmt(Table(CounterTable), Columns(cols), Conditions(_counterKey))
	})
}

// SimpleCounterDelete returns the delete of a row of the counter table
func (g *Generator) SimpleCounterDelete() (*Prepared, error) {
	return g.get(SimpleCounterDelete, CounterTable, nil, func() (string, error) {
		return DeleteStmt(Table(CounterTable), Conditions(_counterKey))
	})
}

// ClusteredCounterIncr returns the increment of a counter column of the
// entity table
func (g *Generator) ClusteredCounterIncr(em *metadata.EntityMeta, pm *metadata.PropertyMeta) (*Prepared, error) {
	cols := []string{pm.Name}
	return g.get(ClusteredCounterIncr, em.TableName, cols, func() (string, error) {
		return UpdateStmt(Table(em.TableName), Increment(pm.Name), Conditions(em.KeyColumns()))
	})
}

// ClusteredCounterSelect returns the select of a counter column of the
// entity table
func (g *Generator) ClusteredCounterSelect(em *metadata.EntityMeta, pm *metadata.PropertyMeta) (*Prepared, error) {
	cols := []string{pm.Name}
	return g.get(ClusteredCounterSelect, em.TableName, cols, func() (string, error) {
		return SelectStmt(Table(em.TableName), Columns(cols), Conditions(em.KeyColumns()))
	})
}

// ClusteredCounterDelete returns the delete of the row holding the
// counters of a clustered counter entity
func (g *Generator) ClusteredCounterDelete(em *metadata.EntityMeta) (*Prepared, error) {
	return g.get(ClusteredCounterDelete, em.TableName, nil, func() (string, error) {
		return DeleteStmt(Table(em.TableName), Conditions(em.KeyColumns()))
	})
}
