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

// Package binder produces the ordered values bound to the placeholders of
// prepared statements, for every kind of operation on an entity.
package binder

import (
	"fmt"
	"strings"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/mboudraa/Achilles/pkg/storage/transcoder"
)

// PreparedStatement is the handle of a statement prepared against the
// store. Values are bound positionally to its placeholders.
type PreparedStatement interface {
	Query() string
}

// BoundValues pairs a prepared statement with the values bound to it. It
// is immutable once built.
type BoundValues struct {
	Statement PreparedStatement
	Values    []interface{}
}

// String renders the statement and its values for logs
func (bv *BoundValues) String() string {
	values := make([]string, len(bv.Values))
	for i, v := range bv.Values {
		if v == nil {
			values[i] = "null"
			continue
		}
		values[i] = fmt.Sprintf("%v", v)
	}
	query := ""
	if bv.Statement != nil {
		query = bv.Statement.Query()
	}
	return fmt.Sprintf("%s [%s]", query, strings.Join(values, ", "))
}

// Binder binds entity state to prepared statements
type Binder struct {
	transcoder *transcoder.Transcoder
}

// New creates a Binder encoding values with t
func New(t *transcoder.Transcoder) *Binder {
	return &Binder{transcoder: t}
}

// BindForInsert binds the primary key components followed by every
// property but the id and the counters, in declaration order.
func (b *Binder) BindForInsert(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	entity interface{},
) (*BoundValues, error) {
	values, err := b.bindPrimaryKey(em, em.PrimaryKey(entity))
	if err != nil {
		return nil, err
	}
	for _, pm := range em.AllMetasExceptIDAndCounters() {
		v, err := b.encodeValue(pm, pm.GetValue(entity))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return &BoundValues{Statement: ps, Values: values}, nil
}

// BindForUpdate binds the values of dirty in the given order, followed by
// the primary key components of the WHERE clause.
func (b *Binder) BindForUpdate(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	entity interface{},
	dirty []*metadata.PropertyMeta,
) (*BoundValues, error) {
	values := make([]interface{}, 0, len(dirty)+len(em.KeyColumns()))
	for _, pm := range dirty {
		v, err := b.encodeValue(pm, pm.GetValue(entity))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	key, err := b.bindPrimaryKey(em, em.PrimaryKey(entity))
	if err != nil {
		return nil, err
	}
	return &BoundValues{Statement: ps, Values: append(values, key...)}, nil
}

// BindStatementWithOnlyPrimaryKey binds the primary key components only,
// for selects and deletes by key.
func (b *Binder) BindStatementWithOnlyPrimaryKey(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	primaryKey interface{},
) (*BoundValues, error) {
	values, err := b.bindPrimaryKey(em, primaryKey)
	if err != nil {
		return nil, err
	}
	return &BoundValues{Statement: ps, Values: values}, nil
}

// BindForSimpleCounterIncrementDecrement binds delta followed by the
// coordinates of the counter row in the counter table.
func (b *Binder) BindForSimpleCounterIncrementDecrement(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	pm *metadata.PropertyMeta,
	primaryKey interface{},
	delta int64,
) (*BoundValues, error) {
	values, err := b.simpleCounterValues(em, pm, primaryKey)
	if err != nil {
		return nil, err
	}
	return &BoundValues{Statement: ps, Values: append([]interface{}{delta}, values...)}, nil
}

// BindForSimpleCounterSelect binds the coordinates of the counter row
func (b *Binder) BindForSimpleCounterSelect(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	pm *metadata.PropertyMeta,
	primaryKey interface{},
) (*BoundValues, error) {
	values, err := b.simpleCounterValues(em, pm, primaryKey)
	if err != nil {
		return nil, err
	}
	return &BoundValues{Statement: ps, Values: values}, nil
}

// BindForSimpleCounterDelete binds the coordinates of the counter row
func (b *Binder) BindForSimpleCounterDelete(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	pm *metadata.PropertyMeta,
	primaryKey interface{},
) (*BoundValues, error) {
	return b.BindForSimpleCounterSelect(ps, em, pm, primaryKey)
}

// BindForClusteredCounterIncrementDecrement binds delta followed by the
// primary key components, the counter being a column of the entity row.
func (b *Binder) BindForClusteredCounterIncrementDecrement(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	primaryKey interface{},
	delta int64,
) (*BoundValues, error) {
	values, err := b.bindPrimaryKey(em, primaryKey)
	if err != nil {
		return nil, err
	}
	return &BoundValues{Statement: ps, Values: append([]interface{}{delta}, values...)}, nil
}

// BindForClusteredCounterSelect binds the primary key components
func (b *Binder) BindForClusteredCounterSelect(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	primaryKey interface{},
) (*BoundValues, error) {
	return b.BindStatementWithOnlyPrimaryKey(ps, em, primaryKey)
}

// BindForClusteredCounterDelete binds the primary key components
func (b *Binder) BindForClusteredCounterDelete(
	ps PreparedStatement,
	em *metadata.EntityMeta,
	primaryKey interface{},
) (*BoundValues, error) {
	return b.BindStatementWithOnlyPrimaryKey(ps, em, primaryKey)
}

func (b *Binder) bindPrimaryKey(em *metadata.EntityMeta, primaryKey interface{}) ([]interface{}, error) {
	if primaryKey == nil {
		return nil, storage.NewEncodingError(em.IDMeta.Name, em.IDMeta.Kind.String(),
			"primary key of entity %s should not be null", em.TypeName)
	}
	return b.transcoder.EncodeKey(em.IDMeta, primaryKey)
}

// simpleCounterValues returns the key of a counter in the counter table:
// the qualified entity type name, the stringified primary key and the
// property name.
func (b *Binder) simpleCounterValues(
	em *metadata.EntityMeta,
	pm *metadata.PropertyMeta,
	primaryKey interface{},
) ([]interface{}, error) {
	key, err := b.transcoder.ForceEncodeToJSON(em.IDMeta, primaryKey)
	if err != nil {
		return nil, err
	}
	return []interface{}{em.QualifiedName, key, pm.Name}, nil
}

// encodeValue encodes a non key property, null values are bound as null
func (b *Binder) encodeValue(pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch pm.Kind {
	case metadata.KindSimple, metadata.KindList, metadata.KindSet, metadata.KindMap,
		metadata.KindJoinSimple, metadata.KindJoinList, metadata.KindJoinSet, metadata.KindJoinMap:
		return b.transcoder.Encode(pm, value)
	}
	return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
		"can not encode value '%v' for the store", value)
}
