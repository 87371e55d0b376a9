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

// MapWrapper wraps a map property. Its key, value and entry views write
// through to the map of the entity.
type MapWrapper struct {
	wrapper
}

func (m *MapWrapper) keyType() reflect.Type {
	return m.pm.FieldType.Key()
}

func (m *MapWrapper) valueType() reflect.Type {
	return m.pm.FieldType.Elem()
}

func (m *MapWrapper) ensure() reflect.Value {
	f := m.field()
	if f.IsNil() {
		f.Set(reflect.MakeMap(f.Type()))
	}
	return f
}

// Len returns the number of entries
func (m *MapWrapper) Len() int {
	return m.field().Len()
}

// IsEmpty returns true for an empty or nil map
func (m *MapWrapper) IsEmpty() bool {
	return m.Len() == 0
}

// Get returns the value of key
func (m *MapWrapper) Get(key interface{}) (interface{}, bool) {
	k, err := m.convert(key, m.keyType())
	if err != nil {
		return nil, false
	}
	v := m.field().MapIndex(k)
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// GetJoin returns the proxied join target stored under key
func (m *MapWrapper) GetJoin(ctx context.Context, key interface{}) (*Proxy, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	return m.Resolve(ctx, v)
}

// ContainsKey returns true if key has an entry
func (m *MapWrapper) ContainsKey(key interface{}) bool {
	_, ok := m.Get(key)
	return ok
}

// ContainsValue returns true if an entry holds v
func (m *MapWrapper) ContainsValue(v interface{}) bool {
	_, ok := m.keyOf(v)
	return ok
}

// Put sets the value of key and returns the previous one
func (m *MapWrapper) Put(key, value interface{}) (interface{}, error) {
	k, err := m.convert(key, m.keyType())
	if err != nil {
		return nil, err
	}
	v, err := m.convert(value, m.valueType())
	if err != nil {
		return nil, err
	}
	f := m.ensure()
	var old interface{}
	if prev := f.MapIndex(k); prev.IsValid() {
		old = prev.Interface()
	}
	f.SetMapIndex(k, v)
	m.markDirty()
	return old, nil
}

// PutAll copies every entry of entries, a map with compatible key and
// value types.
func (m *MapWrapper) PutAll(entries interface{}) error {
	ev := reflect.ValueOf(entries)
	if ev.Kind() != reflect.Map {
		return storage.NewValidationError("expected a map, got %T", entries)
	}
	iter := ev.MapRange()
	for iter.Next() {
		if _, err := m.Put(iter.Key().Interface(), iter.Value().Interface()); err != nil {
			return err
		}
	}
	return nil
}

// Remove removes the entry of key and returns its value
func (m *MapWrapper) Remove(key interface{}) (interface{}, bool) {
	k, err := m.convert(key, m.keyType())
	if err != nil {
		return nil, false
	}
	f := m.field()
	if f.IsNil() {
		return nil, false
	}
	prev := f.MapIndex(k)
	if !prev.IsValid() {
		return nil, false
	}
	f.SetMapIndex(k, reflect.Value{})
	m.markDirty()
	return prev.Interface(), true
}

// Clear removes every entry, keeping the map non nil
func (m *MapWrapper) Clear() {
	f := m.field()
	f.Set(reflect.MakeMap(f.Type()))
	m.markDirty()
}

// KeySet returns a view of the keys
func (m *MapWrapper) KeySet() *KeySetView {
	return &KeySetView{m: m}
}

// Values returns a view of the values
func (m *MapWrapper) Values() *ValuesView {
	return &ValuesView{m: m}
}

// Entries returns a view of the entries
func (m *MapWrapper) Entries() *EntrySetView {
	return &EntrySetView{m: m}
}

func (m *MapWrapper) keys() []interface{} {
	keys := m.field().MapKeys()
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		out[i] = k.Interface()
	}
	return out
}

// keyOf returns the key of the first entry holding v
func (m *MapWrapper) keyOf(v interface{}) (interface{}, bool) {
	iter := m.field().MapRange()
	for iter.Next() {
		if m.equal(iter.Value(), v) {
			return iter.Key().Interface(), true
		}
	}
	return nil, false
}

// KeySetView is the key set of a MapWrapper. Removing a key removes its
// entry from the map.
type KeySetView struct {
	m *MapWrapper
}

// Len returns the number of keys
func (ks *KeySetView) Len() int {
	return ks.m.Len()
}

// Contains returns true if key has an entry
func (ks *KeySetView) Contains(key interface{}) bool {
	return ks.m.ContainsKey(key)
}

// ToSlice returns the keys in no particular order
func (ks *KeySetView) ToSlice() []interface{} {
	return ks.m.keys()
}

// Remove removes the entry of key
func (ks *KeySetView) Remove(key interface{}) bool {
	_, ok := ks.m.Remove(key)
	return ok
}

// Iterator returns an iterator over a snapshot of the keys
func (ks *KeySetView) Iterator() *MapIterator {
	return newMapIterator(ks.m, func(k interface{}) interface{} { return k })
}

// ValuesView is the value collection of a MapWrapper. Removing a value
// removes the first entry holding it.
type ValuesView struct {
	m *MapWrapper
}

// Len returns the number of values
func (vs *ValuesView) Len() int {
	return vs.m.Len()
}

// Contains returns true if an entry holds v
func (vs *ValuesView) Contains(v interface{}) bool {
	return vs.m.ContainsValue(v)
}

// ToSlice returns the values in no particular order
func (vs *ValuesView) ToSlice() []interface{} {
	out := make([]interface{}, 0, vs.m.Len())
	iter := vs.m.field().MapRange()
	for iter.Next() {
		out = append(out, iter.Value().Interface())
	}
	return out
}

// Remove removes the first entry holding v
func (vs *ValuesView) Remove(v interface{}) bool {
	key, ok := vs.m.keyOf(v)
	if !ok {
		return false
	}
	_, ok = vs.m.Remove(key)
	return ok
}

// Iterator returns an iterator over a snapshot of the values
func (vs *ValuesView) Iterator() *MapIterator {
	return newMapIterator(vs.m, func(k interface{}) interface{} {
		v, _ := vs.m.Get(k)
		return v
	})
}

// EntrySetView is the entry set of a MapWrapper
type EntrySetView struct {
	m *MapWrapper
}

// Len returns the number of entries
func (es *EntrySetView) Len() int {
	return es.m.Len()
}

// ToSlice returns the entries in no particular order
func (es *EntrySetView) ToSlice() []*MapEntry {
	keys := es.m.keys()
	out := make([]*MapEntry, len(keys))
	for i, k := range keys {
		out[i] = &MapEntry{m: es.m, key: k}
	}
	return out
}

// Iterator returns an iterator over a snapshot of the entries, Value
// returns a *MapEntry.
func (es *EntrySetView) Iterator() *MapIterator {
	return newMapIterator(es.m, func(k interface{}) interface{} {
		return &MapEntry{m: es.m, key: k}
	})
}

// MapEntry is one entry of a MapWrapper. SetValue writes through to the
// map.
type MapEntry struct {
	m   *MapWrapper
	key interface{}
}

// Key returns the key of the entry
func (e *MapEntry) Key() interface{} {
	return e.key
}

// Value returns the current value of the entry
func (e *MapEntry) Value() interface{} {
	v, _ := e.m.Get(e.key)
	return v
}

// SetValue replaces the value of the entry and returns the previous one
func (e *MapEntry) SetValue(v interface{}) (interface{}, error) {
	return e.m.Put(e.key, v)
}

// MapIterator iterates over a snapshot of the keys of a MapWrapper and
// projects each key to a key, a value or an entry.
type MapIterator struct {
	m       *MapWrapper
	keys    []interface{}
	project func(key interface{}) interface{}
	cursor  int
	removed bool
}

func newMapIterator(m *MapWrapper, project func(interface{}) interface{}) *MapIterator {
	return &MapIterator{m: m, keys: m.keys(), project: project, cursor: -1}
}

// Next advances the iterator, it returns false once exhausted
func (it *MapIterator) Next() bool {
	if it.cursor+1 >= len(it.keys) {
		return false
	}
	it.cursor++
	it.removed = false
	return true
}

// Value returns the current key, value or entry
func (it *MapIterator) Value() interface{} {
	return it.project(it.keys[it.cursor])
}

// Remove removes the current entry from the map
func (it *MapIterator) Remove() error {
	if it.cursor < 0 || it.removed {
		return storage.NewValidationError("iterator has no current element")
	}
	it.m.Remove(it.keys[it.cursor])
	it.removed = true
	return nil
}
