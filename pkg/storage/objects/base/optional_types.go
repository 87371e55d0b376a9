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

package base

import (
	"reflect"
)

// Optional is implemented by the custom optional types. A nil optional
// value is stored as a null column, which lets string and integer keys
// be told apart from their zero value.
type Optional interface {
	// RawValue returns the value understood by the DB layer
	RawValue() interface{}
}

// OptionalString type can be used for a property of type string
// to be evaluated as either nil or some string value
// different than empty string
type OptionalString struct {
	Value string
}

// NewOptionalString returns either new *OptionalString or nil
func NewOptionalString(v interface{}) *OptionalString {
	s, ok := v.(string)
	if ok && len(s) > 0 {
		return &OptionalString{Value: s}
	}
	return nil
}

// String for *OptionalString type
func (s *OptionalString) String() string {
	return s.Value
}

// RawValue returns the string value
func (s *OptionalString) RawValue() interface{} {
	return s.Value
}

// OptionalUInt64 type can be used for a property of type uint64
// to be evaluated as either nil or some uint64 value
type OptionalUInt64 struct {
	Value uint64
}

// NewOptionalUInt64 returns either new *OptionalUInt64 or nil. C* hands
// back bigint columns as int64 so both are accepted.
func NewOptionalUInt64(v interface{}) *OptionalUInt64 {
	switch n := v.(type) {
	case uint64:
		return &OptionalUInt64{Value: n}
	case int64:
		return &OptionalUInt64{Value: uint64(n)}
	}
	return nil
}

// RawValue returns the value as int64 since C* has no unsigned types
func (u *OptionalUInt64) RawValue() interface{} {
	return int64(u.Value)
}

var (
	_optionalStringType = reflect.TypeOf(&OptionalString{})
	_optionalUInt64Type = reflect.TypeOf(&OptionalUInt64{})
)

// IsOfTypeOptional returns whether a type is one of the custom optional
// types.
func IsOfTypeOptional(typ reflect.Type) bool {
	switch typ {
	case _optionalStringType, _optionalUInt64Type:
		return true
	default:
		return false
	}
}

// RawTypeOfOptional returns the type used in the DB for an optional type
func RawTypeOfOptional(typ reflect.Type) reflect.Type {
	if typ == _optionalUInt64Type {
		return reflect.TypeOf(int64(0))
	}
	return reflect.TypeOf("")
}

// ConvertFromRawToOptionalType returns a value representing an
// optional type built from the raw type fetched from DB
func ConvertFromRawToOptionalType(typ reflect.Type, raw interface{}) reflect.Value {
	switch typ {
	case _optionalUInt64Type:
		return reflect.ValueOf(NewOptionalUInt64(raw))
	default:
		return reflect.ValueOf(NewOptionalString(raw))
	}
}
