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

package transcoder

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
)

type embeddedIDStrategy struct{}

func (embeddedIDStrategy) encode(t *Transcoder, pm *metadata.PropertyMeta, value interface{}) (interface{}, error) {
	return t.EncodeToComponents(pm, value)
}

func (embeddedIDStrategy) decode(t *Transcoder, pm *metadata.PropertyMeta, wire interface{}) (interface{}, error) {
	components, ok := wire.([]interface{})
	if !ok {
		return nil, storage.NewEncodingError(pm.Name, pm.Kind.String(),
			"expected the list of key components, got %T", wire)
	}
	return t.DecodeFromComponents(pm, components)
}

// EncodeToComponents encodes a compound key into one wire value per
// component, in sequence order.
func (t *Transcoder) EncodeToComponents(idMeta *metadata.PropertyMeta, key interface{}) ([]interface{}, error) {
	if !idMeta.IsEmbeddedID() {
		return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
			"property is not a compound key")
	}
	if isNil(key) {
		return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
			"compound key is null")
	}
	mk := idMeta.MultiKey
	components := make([]interface{}, mk.Len())
	for i := range components {
		wire, err := encodeValue(mk.Component(key, i))
		if err != nil {
			return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
				"component '%s': %v", mk.ComponentNames[i], err)
		}
		components[i] = wire
	}
	return components, nil
}

// DecodeFromComponents builds a compound key from its wire components,
// through the key constructor when there is one. The result has the type
// of the id field.
func (t *Transcoder) DecodeFromComponents(idMeta *metadata.PropertyMeta, components []interface{}) (interface{}, error) {
	if !idMeta.IsEmbeddedID() {
		return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
			"property is not a compound key")
	}
	mk := idMeta.MultiKey
	if len(components) != mk.Len() {
		return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
			"expected %d components, got %d", mk.Len(), len(components))
	}
	values := make([]reflect.Value, len(components))
	for i, wire := range components {
		v, err := decodeValue(mk.ComponentTypes[i], wire)
		if err != nil {
			return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
				"component '%s': %v", mk.ComponentNames[i], err)
		}
		values[i] = v
	}
	key, err := mk.NewKey(values)
	if err != nil {
		return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(), "%v", err)
	}
	if idMeta.FieldType.Kind() == reflect.Ptr {
		ptr := reflect.New(mk.KeyType)
		ptr.Elem().Set(key)
		return ptr.Interface(), nil
	}
	return key.Interface(), nil
}

// EncodeKey encodes a primary key into the values bound to the key
// columns: one value for a simple id, one per component for a compound key.
func (t *Transcoder) EncodeKey(idMeta *metadata.PropertyMeta, key interface{}) ([]interface{}, error) {
	if idMeta.IsEmbeddedID() {
		return t.EncodeToComponents(idMeta, key)
	}
	wire, err := t.Encode(idMeta, key)
	if err != nil {
		return nil, err
	}
	return []interface{}{wire}, nil
}

// DecodeKey is the inverse of EncodeKey
func (t *Transcoder) DecodeKey(idMeta *metadata.PropertyMeta, values []interface{}) (interface{}, error) {
	if idMeta.IsEmbeddedID() {
		return t.DecodeFromComponents(idMeta, values)
	}
	if len(values) != 1 {
		return nil, storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
			"expected 1 key value, got %d", len(values))
	}
	return t.Decode(idMeta, values[0])
}

// ForceEncodeToJSON returns the canonical string form of a primary key. A
// string key is returned as is, other simple keys as their json text and
// compound keys as a json object of their components in sequence order.
func (t *Transcoder) ForceEncodeToJSON(idMeta *metadata.PropertyMeta, key interface{}) (string, error) {
	if isNil(key) {
		return "", storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
			"can not stringify a null key")
	}

	if !idMeta.IsEmbeddedID() {
		v := reflect.Indirect(reflect.ValueOf(key))
		if v.Kind() == reflect.String {
			return v.String(), nil
		}
		text, err := json.Marshal(v.Interface())
		if err != nil {
			return "", storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(), "%v", err)
		}
		return string(text), nil
	}

	mk := idMeta.MultiKey
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range mk.ComponentNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(name)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(mk.Component(key, i))
		if err != nil {
			return "", storage.NewEncodingError(idMeta.Name, idMeta.Kind.String(),
				"component '%s': %v", name, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
