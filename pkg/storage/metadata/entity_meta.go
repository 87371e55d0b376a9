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

package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mboudraa/Achilles/pkg/storage/consistency"
)

// EntityMeta describes one mapped entity type. It is built once by the
// Registry and shared read-only afterwards.
type EntityMeta struct {
	// Type is the go struct type of the entity
	Type reflect.Type
	// TypeName is the name of the go type
	TypeName string
	// QualifiedName is the import path qualified type name, used to key
	// rows of the shared counter table
	QualifiedName string
	// TableName is the name of the table the entity is mapped to
	TableName string
	// IDMeta is the identifying property, either ID or EMBEDDED_ID
	IDMeta *PropertyMeta
	// ClusteredCounter is set for entities with a compound key whose
	// other properties are all counters. Their counters live as clustered
	// columns of the entity's own table.
	ClusteredCounter bool
	// ReadLevel is the declared default read consistency, if any
	ReadLevel consistency.Level
	// WriteLevel is the declared default write consistency, if any
	WriteLevel consistency.Level

	properties []*PropertyMeta
	byName     map[string]*PropertyMeta
	eager      []*PropertyMeta
}

// DeclaredConsistency implements consistency.Declared
func (em *EntityMeta) DeclaredConsistency() (read, write consistency.Level) {
	return em.ReadLevel, em.WriteLevel
}

// Properties returns every property, id included, in declaration order
func (em *EntityMeta) Properties() []*PropertyMeta {
	return em.properties
}

// Property looks a property up by column name, case-insensitively
func (em *EntityMeta) Property(name string) (*PropertyMeta, bool) {
	pm, ok := em.byName[strings.ToLower(name)]
	return pm, ok
}

// MustProperty is like Property but panics on unknown names. It is meant
// for resolving property handles during initialization.
func (em *EntityMeta) MustProperty(name string) *PropertyMeta {
	pm, ok := em.Property(name)
	if !ok {
		panic(fmt.Sprintf("entity %s has no property '%s'", em.TypeName, name))
	}
	return pm
}

// EagerMetas returns the properties loaded when an entity is found, id
// first, in the order they are materialized.
func (em *EntityMeta) EagerMetas() []*PropertyMeta {
	return em.eager
}

// AllMetasExceptID returns every property but the id, in declaration order
func (em *EntityMeta) AllMetasExceptID() []*PropertyMeta {
	metas := make([]*PropertyMeta, 0, len(em.properties))
	for _, pm := range em.properties {
		if pm != em.IDMeta {
			metas = append(metas, pm)
		}
	}
	return metas
}

// AllMetasExceptIDAndCounters returns the properties written by an insert
func (em *EntityMeta) AllMetasExceptIDAndCounters() []*PropertyMeta {
	metas := make([]*PropertyMeta, 0, len(em.properties))
	for _, pm := range em.properties {
		if pm != em.IDMeta && !pm.IsCounter() {
			metas = append(metas, pm)
		}
	}
	return metas
}

// CounterMetas returns the counter properties
func (em *EntityMeta) CounterMetas() []*PropertyMeta {
	var metas []*PropertyMeta
	for _, pm := range em.properties {
		if pm.IsCounter() {
			metas = append(metas, pm)
		}
	}
	return metas
}

// KeyColumns returns the column names of the primary key, one per
// component for an embedded id.
func (em *EntityMeta) KeyColumns() []string {
	if em.IDMeta.IsEmbeddedID() {
		return em.IDMeta.MultiKey.ComponentNames
	}
	return []string{em.IDMeta.Name}
}

// ColumnsOf expands properties into column names, embedded ids being
// expanded into their components.
func (em *EntityMeta) ColumnsOf(metas []*PropertyMeta) []string {
	var columns []string
	for _, pm := range metas {
		if pm.IsEmbeddedID() {
			columns = append(columns, pm.MultiKey.ComponentNames...)
			continue
		}
		columns = append(columns, pm.Name)
	}
	return columns
}

// ColumnsForSelect returns the columns read when an entity is found
func (em *EntityMeta) ColumnsForSelect() []string {
	return em.ColumnsOf(em.eager)
}

// New allocates a new zero entity and returns a pointer to it
func (em *EntityMeta) New() interface{} {
	return reflect.New(em.Type).Interface()
}

// PrimaryKey returns the primary key value of entity
func (em *EntityMeta) PrimaryKey(entity interface{}) interface{} {
	return em.IDMeta.GetValue(entity)
}

// String returns a short description used in logs
func (em *EntityMeta) String() string {
	return fmt.Sprintf("EntityMeta[%s -> %s]", em.TypeName, em.TableName)
}
