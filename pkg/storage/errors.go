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

package storage

import (
	"fmt"
)

// MappingError is returned when entity metadata cannot be built: missing
// or duplicated id, bad compound key component sequence, unresolved join
// target and so on. It is raised once, at registry build time, and is
// never worth retrying.
type MappingError struct {
	// Entity is the name of the go type being mapped
	Entity string
	// Property is the offending property, empty for entity level errors
	Property string
	// Reason describes the defect
	Reason string
}

// Error implements the error interface
func (e *MappingError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("mapping error on entity '%s': %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("mapping error on property '%s' of entity '%s': %s",
		e.Property, e.Entity, e.Reason)
}

// NewMappingError creates a MappingError
func NewMappingError(entity, property, format string, args ...interface{}) *MappingError {
	return &MappingError{
		Entity:   entity,
		Property: property,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// EncodingError is returned when a value cannot be transcoded for the
// declared kind of its property. It indicates a metadata/data mismatch.
type EncodingError struct {
	// Property is the name of the property being encoded
	Property string
	// Kind is the declared kind of the property
	Kind string
	// Reason describes why the value could not be encoded
	Reason string
}

// Error implements the error interface
func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode property '%s' of kind '%s': %s",
		e.Property, e.Kind, e.Reason)
}

// NewEncodingError creates an EncodingError
func NewEncodingError(property, kind, format string, args ...interface{}) *EncodingError {
	return &EncodingError{
		Property: property,
		Kind:     kind,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// ValidationError is returned for a null consistency level, a malformed
// typed query or a table whose shape does not match the entity metadata.
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
