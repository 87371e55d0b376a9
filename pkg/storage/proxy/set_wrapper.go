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

package proxy

import (
	"context"
	"reflect"

	"github.com/mboudraa/Achilles/pkg/storage"
)

// SetWrapper wraps a set property, a map[T]struct{} field
type SetWrapper struct {
	wrapper
}

func (s *SetWrapper) elemType() reflect.Type {
	return s.pm.FieldType.Key()
}

func (s *SetWrapper) present() reflect.Value {
	return reflect.Zero(s.pm.FieldType.Elem())
}

// ensure allocates the set of the entity when it is nil
func (s *SetWrapper) ensure() reflect.Value {
	f := s.field()
	if f.IsNil() {
		f.Set(reflect.MakeMap(f.Type()))
	}
	return f
}

// Len returns the number of members
func (s *SetWrapper) Len() int {
	return s.field().Len()
}

// IsEmpty returns true for an empty or nil set
func (s *SetWrapper) IsEmpty() bool {
	return s.Len() == 0
}

// Contains returns true if v is a member
func (s *SetWrapper) Contains(v interface{}) bool {
	key, err := s.convert(v, s.elemType())
	if err != nil {
		return false
	}
	return s.field().MapIndex(key).IsValid()
}

// ToSlice returns the members in no particular order
func (s *SetWrapper) ToSlice() []interface{} {
	keys := s.field().MapKeys()
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k.Interface()
	}
	return out
}

// Members returns the proxied targets of a join set
func (s *SetWrapper) Members(ctx context.Context) ([]*Proxy, error) {
	var out []*Proxy
	for _, member := range s.ToSlice() {
		target, err := s.Resolve(ctx, member)
		if err != nil {
			return nil, err
		}
		if target != nil {
			out = append(out, target)
		}
	}
	return out, nil
}

// Add adds v and returns false if it was already a member
func (s *SetWrapper) Add(v interface{}) (bool, error) {
	key, err := s.convert(v, s.elemType())
	if err != nil {
		return false, err
	}
	f := s.ensure()
	added := !f.MapIndex(key).IsValid()
	f.SetMapIndex(key, s.present())
	s.markDirty()
	return added, nil
}

// AddAll adds every value and returns true if the set changed
func (s *SetWrapper) AddAll(values ...interface{}) (bool, error) {
	changed := false
	for _, v := range values {
		added, err := s.Add(v)
		if err != nil {
			return changed, err
		}
		changed = changed || added
	}
	return changed, nil
}

// Remove removes v and returns false if it was not a member
func (s *SetWrapper) Remove(v interface{}) bool {
	key, err := s.convert(v, s.elemType())
	if err != nil {
		return false
	}
	f := s.field()
	if f.IsNil() || !f.MapIndex(key).IsValid() {
		return false
	}
	f.SetMapIndex(key, reflect.Value{})
	s.markDirty()
	return true
}

// RemoveAll removes every value and returns true if the set changed
func (s *SetWrapper) RemoveAll(values ...interface{}) bool {
	changed := false
	for _, v := range values {
		changed = s.Remove(v) || changed
	}
	return changed
}

// RetainAll removes the members not in values. Values are converted the
// way Contains converts them, values of another type retain nothing.
func (s *SetWrapper) RetainAll(values ...interface{}) bool {
	retained := reflect.MakeMapWithSize(s.pm.FieldType, len(values))
	for _, v := range values {
		key, err := s.convert(v, s.elemType())
		if err != nil {
			continue
		}
		retained.SetMapIndex(key, s.present())
	}

	changed := false
	for _, member := range s.field().MapKeys() {
		if !retained.MapIndex(member).IsValid() {
			changed = s.Remove(member.Interface()) || changed
		}
	}
	return changed
}

// Clear removes every member, keeping the set non nil
func (s *SetWrapper) Clear() {
	f := s.field()
	f.Set(reflect.MakeMap(f.Type()))
	s.markDirty()
}

// Iterator returns an iterator over a snapshot of the members
func (s *SetWrapper) Iterator() *SetIterator {
	return &SetIterator{set: s, members: s.ToSlice(), cursor: -1}
}

// SetIterator iterates over a SetWrapper. Members removed through Remove
// are removed from the set.
type SetIterator struct {
	set     *SetWrapper
	members []interface{}
	cursor  int
	removed bool
}

// Next advances the iterator, it returns false once exhausted
func (it *SetIterator) Next() bool {
	if it.cursor+1 >= len(it.members) {
		return false
	}
	it.cursor++
	it.removed = false
	return true
}

// Value returns the current member
func (it *SetIterator) Value() interface{} {
	return it.members[it.cursor]
}

// Remove removes the current member from the set
func (it *SetIterator) Remove() error {
	if it.cursor < 0 || it.removed {
		return storage.NewValidationError("iterator has no current element")
	}
	it.set.Remove(it.members[it.cursor])
	it.removed = true
	return nil
}
