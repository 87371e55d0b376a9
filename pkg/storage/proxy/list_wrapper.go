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

// ListWrapper wraps a slice property. Reads are forwarded to the slice of
// the entity, mutations are applied to it and mark the property dirty.
type ListWrapper struct {
	wrapper
}

func (l *ListWrapper) elemType() reflect.Type {
	return l.pm.FieldType.Elem()
}

// Len returns the number of elements
func (l *ListWrapper) Len() int {
	return l.field().Len()
}

// IsEmpty returns true for an empty or nil list
func (l *ListWrapper) IsEmpty() bool {
	return l.Len() == 0
}

// Get returns the element at index i
func (l *ListWrapper) Get(i int) interface{} {
	return l.field().Index(i).Interface()
}

// GetJoin returns the proxied join target at index i
func (l *ListWrapper) GetJoin(ctx context.Context, i int) (*Proxy, error) {
	return l.Resolve(ctx, l.Get(i))
}

// IndexOf returns the index of the first element equal to v, or -1
func (l *ListWrapper) IndexOf(v interface{}) int {
	f := l.field()
	for i := 0; i < f.Len(); i++ {
		if l.equal(f.Index(i), v) {
			return i
		}
	}
	return -1
}

// Contains returns true if an element is equal to v
func (l *ListWrapper) Contains(v interface{}) bool {
	return l.IndexOf(v) >= 0
}

// ToSlice returns a copy of the elements
func (l *ListWrapper) ToSlice() []interface{} {
	f := l.field()
	out := make([]interface{}, f.Len())
	for i := range out {
		out[i] = f.Index(i).Interface()
	}
	return out
}

// Add appends values to the list
func (l *ListWrapper) Add(values ...interface{}) error {
	f := l.field()
	grown := f
	if grown.IsNil() {
		grown = reflect.MakeSlice(f.Type(), 0, len(values))
	}
	for _, v := range values {
		rv, err := l.convert(v, l.elemType())
		if err != nil {
			return err
		}
		grown = reflect.Append(grown, rv)
	}
	f.Set(grown)
	l.markDirty()
	return nil
}

// Insert inserts v at index i, shifting the following elements
func (l *ListWrapper) Insert(i int, v interface{}) error {
	f := l.field()
	if i < 0 || i > f.Len() {
		return storage.NewValidationError("index %d out of range [0, %d]", i, f.Len())
	}
	rv, err := l.convert(v, l.elemType())
	if err != nil {
		return err
	}
	grown := reflect.MakeSlice(f.Type(), 0, f.Len()+1)
	grown = reflect.AppendSlice(grown, f.Slice(0, i))
	grown = reflect.Append(grown, rv)
	grown = reflect.AppendSlice(grown, f.Slice(i, f.Len()))
	f.Set(grown)
	l.markDirty()
	return nil
}

// Set replaces the element at index i and returns the previous one
func (l *ListWrapper) Set(i int, v interface{}) (interface{}, error) {
	f := l.field()
	if i < 0 || i >= f.Len() {
		return nil, storage.NewValidationError("index %d out of range [0, %d)", i, f.Len())
	}
	rv, err := l.convert(v, l.elemType())
	if err != nil {
		return nil, err
	}
	old := f.Index(i).Interface()
	f.Index(i).Set(rv)
	l.markDirty()
	return old, nil
}

// RemoveAt removes and returns the element at index i
func (l *ListWrapper) RemoveAt(i int) (interface{}, error) {
	f := l.field()
	if i < 0 || i >= f.Len() {
		return nil, storage.NewValidationError("index %d out of range [0, %d)", i, f.Len())
	}
	old := f.Index(i).Interface()
	l.removeIndex(i)
	return old, nil
}

// Remove removes the first element equal to v, it returns false if no
// element matched.
func (l *ListWrapper) Remove(v interface{}) bool {
	i := l.IndexOf(v)
	if i < 0 {
		return false
	}
	l.removeIndex(i)
	return true
}

// RemoveAll removes every element equal to one of values
func (l *ListWrapper) RemoveAll(values ...interface{}) bool {
	return l.filter(func(e reflect.Value) bool {
		for _, v := range values {
			if l.equal(e, v) {
				return false
			}
		}
		return true
	})
}

// RetainAll removes every element equal to none of values
func (l *ListWrapper) RetainAll(values ...interface{}) bool {
	return l.filter(func(e reflect.Value) bool {
		for _, v := range values {
			if l.equal(e, v) {
				return true
			}
		}
		return false
	})
}

// Clear removes every element, keeping the list non nil
func (l *ListWrapper) Clear() {
	f := l.field()
	f.Set(reflect.MakeSlice(f.Type(), 0, 0))
	l.markDirty()
}

// Iterator returns an iterator over the elements
func (l *ListWrapper) Iterator() *ListIterator {
	return &ListIterator{list: l, cursor: -1}
}

func (l *ListWrapper) removeIndex(i int) {
	f := l.field()
	shrunk := reflect.MakeSlice(f.Type(), 0, f.Len()-1)
	shrunk = reflect.AppendSlice(shrunk, f.Slice(0, i))
	shrunk = reflect.AppendSlice(shrunk, f.Slice(i+1, f.Len()))
	f.Set(shrunk)
	l.markDirty()
}

// filter keeps the elements matched by keep and reports whether any was
// removed.
func (l *ListWrapper) filter(keep func(reflect.Value) bool) bool {
	f := l.field()
	kept := reflect.MakeSlice(f.Type(), 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		if keep(f.Index(i)) {
			kept = reflect.Append(kept, f.Index(i))
		}
	}
	if kept.Len() == f.Len() {
		return false
	}
	f.Set(kept)
	l.markDirty()
	return true
}

// ListIterator iterates over a ListWrapper
type ListIterator struct {
	list    *ListWrapper
	cursor  int
	removed bool
}

// Next advances the iterator, it returns false once exhausted
func (it *ListIterator) Next() bool {
	if it.cursor+1 >= it.list.Len() {
		return false
	}
	it.cursor++
	it.removed = false
	return true
}

// Value returns the current element
func (it *ListIterator) Value() interface{} {
	return it.list.Get(it.cursor)
}

// Set replaces the current element
func (it *ListIterator) Set(v interface{}) error {
	if it.cursor < 0 || it.removed {
		return storage.NewValidationError("iterator has no current element")
	}
	_, err := it.list.Set(it.cursor, v)
	return err
}

// Remove removes the current element from the list
func (it *ListIterator) Remove() error {
	if it.cursor < 0 || it.removed {
		return storage.NewValidationError("iterator has no current element")
	}
	it.list.removeIndex(it.cursor)
	it.cursor--
	it.removed = true
	return nil
}
