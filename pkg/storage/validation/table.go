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

// Package validation checks that the tables of the keyspace and the typed
// queries issued by the application agree with the entity metadata.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
	"github.com/mboudraa/Achilles/pkg/storage/statement"
	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var (
	_timeType      = reflect.TypeOf(time.Time{})
	_gocqlUUIDType = reflect.TypeOf(gocql.UUID{})
	_uuidType      = reflect.TypeOf(uuid.UUID(nil))
)

// cqlType is the expected type of a column. The first of accepted is the
// canonical name, the others are compatible aliases.
type cqlType struct {
	accepted []gocql.Type
	key      *cqlType
	elem     *cqlType
}

func native(accepted ...gocql.Type) *cqlType {
	return &cqlType{accepted: accepted}
}

func (t *cqlType) String() string {
	name := t.accepted[0].String()
	switch {
	case t.key != nil:
		return fmt.Sprintf("%s<%s, %s>", name, t.key, t.elem)
	case t.elem != nil:
		return fmt.Sprintf("%s<%s>", name, t.elem)
	}
	return name
}

// matches returns true if the column type info is compatible with t
func (t *cqlType) matches(info gocql.TypeInfo) bool {
	ok := false
	for _, a := range t.accepted {
		if info.Type() == a {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}
	if t.elem == nil {
		return true
	}
	coll, isColl := info.(gocql.CollectionType)
	if !isColl || coll.Elem == nil || !t.elem.matches(coll.Elem) {
		return false
	}
	return t.key == nil || (coll.Key != nil && t.key.matches(coll.Key))
}

// typeString renders a column type info the way it is declared in CQL
func typeString(info gocql.TypeInfo) string {
	if info == nil {
		return "unknown"
	}
	if coll, ok := info.(gocql.CollectionType); ok {
		switch info.Type() {
		case gocql.TypeMap:
			return fmt.Sprintf("map<%s, %s>", typeString(coll.Key), typeString(coll.Elem))
		case gocql.TypeList, gocql.TypeSet:
			return fmt.Sprintf("%s<%s>", info.Type(), typeString(coll.Elem))
		}
	}
	return info.Type().String()
}

// scalarType returns the column type a go value type is persisted as. It
// follows the representations produced by the transcoder.
func scalarType(typ reflect.Type) *cqlType {
	if base.IsOfTypeOptional(typ) {
		typ = base.RawTypeOfOptional(typ)
	}
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	switch typ {
	case _timeType:
		return native(gocql.TypeTimestamp)
	case _gocqlUUIDType, _uuidType:
		return native(gocql.TypeUUID, gocql.TypeTimeUUID)
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uint32:
		return native(gocql.TypeBigInt, gocql.TypeVarint)
	case reflect.Int8:
		return native(gocql.TypeTinyInt, gocql.TypeSmallInt, gocql.TypeInt)
	case reflect.Int16, reflect.Uint8:
		return native(gocql.TypeSmallInt, gocql.TypeInt)
	case reflect.Int32, reflect.Uint16:
		return native(gocql.TypeInt)
	case reflect.Float32:
		return native(gocql.TypeFloat)
	case reflect.Float64:
		return native(gocql.TypeDouble)
	case reflect.Bool:
		return native(gocql.TypeBoolean)
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return native(gocql.TypeBlob)
		}
	}
	// strings and everything stored as json
	return native(gocql.TypeText, gocql.TypeVarchar, gocql.TypeAscii)
}

// expectedTypes returns the column names and expected types of a property
func expectedTypes(pm *metadata.PropertyMeta) ([]string, []*cqlType) {
	elem := pm.ValueType
	if pm.IsJoin() {
		elem = pm.JoinIDMeta().ValueType
	}

	switch pm.Kind {
	case metadata.KindEmbeddedID:
		mk := pm.MultiKey
		types := make([]*cqlType, mk.Len())
		for i, ct := range mk.ComponentTypes {
			types[i] = scalarType(ct)
		}
		return mk.ComponentNames, types
	case metadata.KindCounter:
		return []string{pm.Name}, []*cqlType{native(gocql.TypeCounter)}
	case metadata.KindList, metadata.KindJoinList:
		return []string{pm.Name}, []*cqlType{{accepted: []gocql.Type{gocql.TypeList}, elem: scalarType(elem)}}
	case metadata.KindSet, metadata.KindJoinSet:
		return []string{pm.Name}, []*cqlType{{accepted: []gocql.Type{gocql.TypeSet}, elem: scalarType(elem)}}
	case metadata.KindMap, metadata.KindJoinMap:
		return []string{pm.Name}, []*cqlType{{
			accepted: []gocql.Type{gocql.TypeMap},
			key:      scalarType(pm.KeyType),
			elem:     scalarType(elem),
		}}
	}
	return []string{pm.Name}, []*cqlType{scalarType(elem)}
}

// TableValidator checks live table metadata against entity metadata
type TableValidator struct{}

// NewTableValidator creates a TableValidator
func NewTableValidator() *TableValidator {
	return &TableValidator{}
}

// ValidateForEntity checks every column mapped by em exists in table with
// a compatible type. All mismatches are reported together.
func (v *TableValidator) ValidateForEntity(em *metadata.EntityMeta, table *gocql.TableMetadata) error {
	if table == nil {
		return storage.NewValidationError("table '%s' of entity %s does not exist",
			em.TableName, em.TypeName)
	}

	columns := make(map[string]*gocql.ColumnMetadata, len(table.Columns))
	for name, col := range table.Columns {
		columns[strings.ToLower(name)] = col
	}

	var errs error
	for _, pm := range em.Properties() {
		// simple counters live in the counter table
		if pm.IsCounter() && !em.ClusteredCounter {
			continue
		}
		names, types := expectedTypes(pm)
		for i, name := range names {
			errs = multierr.Append(errs, checkColumn(table.Name, columns, name, types[i]))
		}
	}

	if errs != nil {
		log.WithFields(log.Fields{
			"entity": em.TypeName,
			"table":  em.TableName,
			"errors": len(multierr.Errors(errs)),
		}).Warn("table does not match entity metadata")
	}
	return errs
}

func checkColumn(
	table string,
	columns map[string]*gocql.ColumnMetadata,
	name string,
	expected *cqlType,
) error {
	col, ok := columns[strings.ToLower(name)]
	if !ok {
		return storage.NewValidationError("cannot find column '%s' in table '%s'", name, table)
	}
	if col.Type == nil || !expected.matches(col.Type) {
		return storage.NewValidationError(
			"column '%s' of table '%s' of type '%s' should be of type '%s'",
			name, table, typeString(col.Type), expected)
	}
	return nil
}

// ValidateCounterTable checks the table holding simple counters exists in
// keyspace with the expected shape.
func ValidateCounterTable(keyspace *gocql.KeyspaceMetadata) error {
	if keyspace == nil {
		return storage.NewValidationError("keyspace metadata is missing")
	}
	var table *gocql.TableMetadata
	for name, t := range keyspace.Tables {
		if strings.EqualFold(name, statement.CounterTable) {
			table = t
			break
		}
	}
	if table == nil {
		return storage.NewValidationError("cannot find table '%s' in keyspace '%s'",
			statement.CounterTable, keyspace.Name)
	}

	columns := make(map[string]*gocql.ColumnMetadata, len(table.Columns))
	for name, col := range table.Columns {
		columns[strings.ToLower(name)] = col
	}

	text := native(gocql.TypeText, gocql.TypeVarchar)
	return multierr.Combine(
		checkColumn(table.Name, columns, statement.CounterFQCN, text),
		checkColumn(table.Name, columns, statement.CounterPrimaryKey, text),
		checkColumn(table.Name, columns, statement.CounterPropertyName, text),
		checkColumn(table.Name, columns, statement.CounterValue, native(gocql.TypeCounter)),
	)
}
