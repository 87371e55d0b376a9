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
)

// Accessor reads and writes one field of an entity. It is resolved once
// when metadata is built and never looked up again per call.
type Accessor struct {
	// Field returns the (settable) field of the entity struct value
	Field func(entity reflect.Value) reflect.Value
}

// fieldAccessor builds an Accessor for the struct field at index
func fieldAccessor(index []int) Accessor {
	return Accessor{
		Field: func(entity reflect.Value) reflect.Value {
			return entity.FieldByIndex(index)
		},
	}
}

// PropertyMeta describes one mapped field of an entity. It is immutable
// once built and safe for concurrent reads.
type PropertyMeta struct {
	// Name is the column name of the property
	Name string
	// FieldName is the name of the go struct field
	FieldName string
	// Entity is the go type name of the owning entity
	Entity string
	// Kind is the semantic kind of the property
	Kind Kind
	// FieldType is the full go type of the field
	FieldType reflect.Type
	// ValueType is the type of the value, or of the elements of a
	// collection. For joins it is the pointer type of the target entity.
	ValueType reflect.Type
	// KeyType is the type of the keys of a map property
	KeyType reflect.Type
	// Lazy properties are not loaded when the entity is found
	Lazy bool
	// JoinMeta is a back-link to the metadata of the join target
	JoinMeta *EntityMeta
	// MultiKey describes the components of an embedded id
	MultiKey *MultiKeyDescriptor
	// Position is the declaration index of the property in its entity
	Position int

	accessor Accessor
}

// IsJoin returns true if the property references another entity
func (pm *PropertyMeta) IsJoin() bool {
	return pm.Kind.IsJoin()
}

// IsCollection returns true for list, set and map properties
func (pm *PropertyMeta) IsCollection() bool {
	return pm.Kind.IsCollection()
}

// IsEmbeddedID returns true for compound keys
func (pm *PropertyMeta) IsEmbeddedID() bool {
	return pm.Kind == KindEmbeddedID
}

// IsCounter returns true for counter properties
func (pm *PropertyMeta) IsCounter() bool {
	return pm.Kind == KindCounter
}

// JoinIDMeta returns the id meta of the join target, nil for non joins
func (pm *PropertyMeta) JoinIDMeta() *PropertyMeta {
	if pm.JoinMeta == nil {
		return nil
	}
	return pm.JoinMeta.IDMeta
}

// Identity returns the key identifying the property in a dirty state
func (pm *PropertyMeta) Identity() string {
	return strings.ToLower(pm.Name)
}

// Field returns the settable field of entity, entity must be a pointer to
// the owning struct.
func (pm *PropertyMeta) Field(entity interface{}) reflect.Value {
	return pm.accessor.Field(reflect.Indirect(reflect.ValueOf(entity)))
}

// GetValue reads the property from entity. A nil pointer, slice or map
// is returned as a nil interface.
func (pm *PropertyMeta) GetValue(entity interface{}) interface{} {
	f := pm.Field(entity)
	if isNillable(f.Kind()) && f.IsNil() {
		return nil
	}
	return f.Interface()
}

// SetValue writes value into the property of entity. A nil value resets
// the field to its zero value.
func (pm *PropertyMeta) SetValue(entity interface{}, value interface{}) error {
	f := pm.Field(entity)
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(f.Type()):
		f.Set(v)
	case convertible(v.Type(), f.Type()):
		f.Set(v.Convert(f.Type()))
	default:
		return fmt.Errorf("cannot assign value of type %s to property '%s' of type %s",
			v.Type(), pm.Name, f.Type())
	}
	return nil
}

// String returns a short description used in logs
func (pm *PropertyMeta) String() string {
	return fmt.Sprintf("%s.%s(%s)", pm.Entity, pm.Name, pm.Kind)
}

// convertible allows conversions between named types and their underlying
// kind, and between numeric kinds. Conversions such as int to string are
// refused.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return from.Kind() == to.Kind() || (isNumeric(from.Kind()) && isNumeric(to.Kind()))
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}

// MultiKeyDescriptor describes a compound key: one entry per component,
// ordered by the declared sequence number.
type MultiKeyDescriptor struct {
	// KeyType is the struct type of the key
	KeyType reflect.Type
	// ComponentTypes are the value types of the components
	ComponentTypes []reflect.Type
	// ComponentNames are the column names of the components
	ComponentNames []string

	componentAccessors []Accessor
	// constructor is the optional key constructor function
	constructor reflect.Value
	// argPositions maps a component index to a constructor argument position
	argPositions []int
}

// Len returns the number of components
func (mk *MultiKeyDescriptor) Len() int {
	return len(mk.ComponentNames)
}

// HasConstructor returns true if keys are built through a constructor
func (mk *MultiKeyDescriptor) HasConstructor() bool {
	return mk.constructor.IsValid()
}

// Component returns the value of the i-th component of key. key may be a
// struct value or a pointer to it. A nil key yields nil.
func (mk *MultiKeyDescriptor) Component(key interface{}, i int) interface{} {
	kv := reflect.ValueOf(key)
	if !kv.IsValid() || (kv.Kind() == reflect.Ptr && kv.IsNil()) {
		return nil
	}
	f := mk.componentAccessors[i].Field(reflect.Indirect(kv))
	if isNillable(f.Kind()) && f.IsNil() {
		return nil
	}
	return f.Interface()
}

// NewKey builds a key struct value from component values already
// converted to their component types, in sequence order.
func (mk *MultiKeyDescriptor) NewKey(components []reflect.Value) (reflect.Value, error) {
	if len(components) != mk.Len() {
		return reflect.Value{}, fmt.Errorf("expected %d components for key %s, got %d",
			mk.Len(), mk.KeyType.Name(), len(components))
	}
	if mk.HasConstructor() {
		args := make([]reflect.Value, len(components))
		for i, c := range components {
			args[mk.argPositions[i]] = c
		}
		out := mk.constructor.Call(args)
		return reflect.Indirect(out[0]), nil
	}
	key := reflect.New(mk.KeyType).Elem()
	for i, c := range components {
		mk.componentAccessors[i].Field(key).Set(c)
	}
	return key, nil
}
