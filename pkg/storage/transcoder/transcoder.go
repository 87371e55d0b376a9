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

// Package transcoder converts property values between their in-memory
// representation and the representation handed to and returned by the
// driver. Every property kind has exactly one strategy.
package transcoder

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
)

// strategy encodes and decodes the values of one property kind
type strategy interface {
	encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error)
	decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error)
}

// Transcoder dispatches encoding over the kind of a property. It holds no
// mutable state and is safe for concurrent use.
type Transcoder struct {
	strategies [metadata.KindCount]strategy
}

var _default = New()

// Default returns the shared transcoder
func Default() *Transcoder {
	return _default
}

// New creates a Transcoder
func New() *Transcoder {
	return &Transcoder{
		strategies: [metadata.KindCount]strategy{
			metadata.KindID:         simpleStrategy{},
			metadata.KindEmbeddedID: embeddedIDStrategy{},
			metadata.KindSimple:     simpleStrategy{},
			metadata.KindList:       listStrategy{},
			metadata.KindSet:        setStrategy{},
			metadata.KindMap:        mapStrategy{},
			metadata.KindCounter:    counterStrategy{},
			metadata.KindJoinSimple: joinSimpleStrategy{},
			metadata.KindJoinList:   listStrategy{},
			metadata.KindJoinSet:    setStrategy{},
			metadata.KindJoinMap:    mapStrategy{},
		},
	}
}

func (t *Transcoder) strategyOf(pm *metadata.PropertyMeta) (strategy, error) {
	if pm.Kind < 0 || pm.Kind >= metadata.KindCount || t.strategies[pm.Kind] == nil {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"no transcoding strategy for kind")
	}
	return t.strategies[pm.Kind], nil
}

// Encode converts value, the go value of property pm, to its wire form.
// A nil value, nil pointer or nil collection encodes to nil.
func (t *Transcoder) Encode(pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	s, err := t.strategyOf(pm)
	if err != nil {
		return nil, err
	}
	return s.encode(t, pm, value)
}

// Decode converts a wire value of property pm back to its go value. The
// returned value is assignable to the field of pm.
func (t *Transcoder) Decode(pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	s, err := t.strategyOf(pm)
	if err != nil {
		return nil, err
	}
	return s.decode(t, pm, wire)
}

func encodingError(pm *metadata.PropertyMeta, err error) error {
	if _, ok := err.(*storage.EncodingError); ok {
		return err
	}
	return storage.NewEncodingError(pm.Name, pm.Kind.String(), "%v", err)
}

// elementOf encodes one element of a collection, following joins to the id
// of their target.
func (t *Transcoder) elementOf(pm *metadata.PropertyMeta, v interface{}) (interface{}, error) {
	if pm.IsJoin() {
		return t.encodeJoinID(pm, v)
	}
	return encodeValue(v)
}

// decodeElement is the inverse of elementOf, joins decode to a reference
// entity carrying only its id.
func (t *Transcoder) decodeElement(pm *metadata.PropertyMeta, typ reflect.Type, wire interface{}) (reflect.Value, error) {
	if pm.IsJoin() {
		return t.decodeJoinReference(pm, wire)
	}
	return decodeValue(typ, wire)
}

// encodeJoinID reads the id of a join target and encodes it through the
// id meta of the target.
func (t *Transcoder) encodeJoinID(pm *metadata.PropertyMeta, target interface{}) (interface{}, error) {
	if target == nil {
		return nil, nil
	}
	tv := reflect.ValueOf(target)
	if tv.Kind() == reflect.Ptr && tv.IsNil() {
		return nil, nil
	}
	idMeta := pm.JoinIDMeta()
	return t.Encode(idMeta, idMeta.GetValue(target))
}

// decodeJoinReference builds a target entity holding only the decoded id.
// The rest of the target is fetched when the join is navigated.
func (t *Transcoder) decodeJoinReference(pm *metadata.PropertyMeta, wire interface{}) (reflect.Value, error) {
	targetType := pm.JoinMeta.Type
	if wire == nil {
		return reflect.Zero(reflect.PtrTo(targetType)), nil
	}
	idMeta := pm.JoinIDMeta()
	id, err := t.Decode(idMeta, wire)
	if err != nil {
		return reflect.Value{}, err
	}
	ref := reflect.New(targetType)
	if err := idMeta.SetValue(ref.Interface(), id); err != nil {
		return reflect.Value{}, err
	}
	return ref, nil
}

type simpleStrategy struct{}

func (simpleStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	wire, err := encodeValue(value)
	if err != nil {
		return nil, encodingError(pm, err)
	}
	return wire, nil
}

func (simpleStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	v, err := decodeValue(pm.ValueType, wire)
	if err != nil {
		return nil, encodingError(pm, err)
	}
	return v.Interface(), nil
}

type counterStrategy struct{}

func (counterStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v := reflect.ValueOf(value)
	if !isNumeric(v.Kind()) {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"counter values must be numeric, got %T", value)
	}
	return v.Convert(reflect.TypeOf(int64(0))).Interface(), nil
}

func (counterStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	v, err := decodeValue(reflect.TypeOf(int64(0)), wire)
	if err != nil {
		return nil, encodingError(pm, err)
	}
	return v.Interface(), nil
}

type joinSimpleStrategy struct{}

func (joinSimpleStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	wire, err := t.encodeJoinID(pm, value)
	if err != nil {
		return nil, encodingError(pm, err)
	}
	return wire, nil
}

func (joinSimpleStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	ref, err := t.decodeJoinReference(pm, wire)
	if err != nil {
		return nil, encodingError(pm, err)
	}
	return ref.Interface(), nil
}

type listStrategy struct{}

func (listStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected a slice, got %T", value)
	}
	if v.IsNil() {
		return nil, nil
	}
	out := make([]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		e, err := t.elementOf(pm, v.Index(i).Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (listStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	if wire == nil {
		return reflect.Zero(pm.FieldType).Interface(), nil
	}
	w := reflect.ValueOf(wire)
	if w.Kind() != reflect.Slice && w.Kind() != reflect.Array {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected a list, got %T", wire)
	}
	out := reflect.MakeSlice(pm.FieldType, 0, w.Len())
	for i := 0; i < w.Len(); i++ {
		e, err := t.decodeElement(pm, pm.ValueType, w.Index(i).Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		out = reflect.Append(out, e)
	}
	return out.Interface(), nil
}

type setStrategy struct{}

func (setStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected a set, got %T", value)
	}
	if v.IsNil() {
		return nil, nil
	}
	out := make([]interface{}, 0, v.Len())
	for _, k := range v.MapKeys() {
		e, err := t.elementOf(pm, k.Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return lessWire(out[i], out[j])
	})
	return out, nil
}

func (setStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	if wire == nil {
		return reflect.Zero(pm.FieldType).Interface(), nil
	}
	w := reflect.ValueOf(wire)
	out := reflect.MakeMap(pm.FieldType)
	present := reflect.Zero(pm.FieldType.Elem())
	add := func(raw interface{}) error {
		e, err := t.decodeElement(pm, pm.ValueType, raw)
		if err != nil {
			return encodingError(pm, err)
		}
		out.SetMapIndex(e, present)
		return nil
	}
	switch w.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < w.Len(); i++ {
			if err := add(w.Index(i).Interface()); err != nil {
				return nil, err
			}
		}
	case reflect.Map:
		for _, k := range w.MapKeys() {
			if err := add(k.Interface()); err != nil {
				return nil, err
			}
		}
	default:
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected a set, got %T", wire)
	}
	return out.Interface(), nil
}

type mapStrategy struct{}

func (mapStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected a map, got %T", value)
	}
	if v.IsNil() {
		return nil, nil
	}
	out := make(map[interface{}]interface{}, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := encodeValue(iter.Key().Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		e, err := t.elementOf(pm, iter.Value().Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		out[k] = e
	}
	return out, nil
}

func (mapStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	if wire == nil {
		return reflect.Zero(pm.FieldType).Interface(), nil
	}
	w := reflect.ValueOf(wire)
	if w.Kind() != reflect.Map {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected a map, got %T", wire)
	}
	out := reflect.MakeMapWithSize(pm.FieldType, w.Len())
	iter := w.MapRange()
	for iter.Next() {
		k, err := decodeValue(pm.KeyType, iter.Key().Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		e, err := t.decodeElement(pm, pm.ValueType, iter.Value().Interface())
		if err != nil {
			return nil, encodingError(pm, err)
		}
		out.SetMapIndex(k, e)
	}
	return out.Interface(), nil
}

// lessWire orders encoded set elements so that bound values are stable
func lessWire(a, b interface{}) bool {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case int32:
		if y, ok := b.(int32); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
