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
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/gocql/gocql"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

var (
	_timeType      = reflect.TypeOf(time.Time{})
	_gocqlUUIDType = reflect.TypeOf(gocql.UUID{})
	_uuidType      = reflect.TypeOf(uuid.UUID(nil))
	_bytesType     = reflect.TypeOf([]byte(nil))
	_optionalType  = reflect.TypeOf((*base.Optional)(nil)).Elem()
)

// encodeValue converts one scalar value to the representation handed to
// the driver. A nil value, pointer or optional encodes to nil.
func encodeValue(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	if opt, ok := value.(base.Optional); ok {
		v := reflect.ValueOf(value)
		if v.Kind() == reflect.Ptr && v.IsNil() {
			return nil, nil
		}
		return opt.RawValue(), nil
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Type() {
	case _timeType, _gocqlUUIDType:
		return v.Interface(), nil
	case _uuidType:
		if v.Len() == 0 {
			return nil, nil
		}
		return gocql.UUIDFromBytes(v.Bytes())
	case _bytesType:
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int64:
		return v.Int(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return int32(v.Int()), nil
	case reflect.Uint8, reflect.Uint16:
		return int32(v.Uint()), nil
	case reflect.Uint32:
		return int64(v.Uint()), nil
	case reflect.Uint, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows a bigint", u)
		}
		return int64(u), nil
	case reflect.Float32:
		return float32(v.Float()), nil
	case reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), nil
		}
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return nil, fmt.Errorf("values of type %s can not be persisted", v.Type())
	}

	// Remaining structs, arrays and nested collections are stored as json
	text, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s as json", v.Type())
	}
	return string(text), nil
}

// decodeValue converts a value returned by the driver to typ. A nil wire
// value decodes to the zero value of typ.
func decodeValue(typ reflect.Type, wire interface{}) (reflect.Value, error) {
	if wire == nil {
		return reflect.Zero(typ), nil
	}

	if base.IsOfTypeOptional(typ) {
		raw, err := decodeValue(base.RawTypeOfOptional(typ), wire)
		if err != nil {
			return reflect.Value{}, err
		}
		return base.ConvertFromRawToOptionalType(typ, raw.Interface()), nil
	}

	if typ.Kind() == reflect.Ptr {
		elem, err := decodeValue(typ.Elem(), wire)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	w := reflect.ValueOf(wire)
	switch typ {
	case _gocqlUUIDType:
		return decodeGocqlUUID(wire)
	case _uuidType:
		u, err := decodeGocqlUUID(wire)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(uuid.UUID(u.Interface().(gocql.UUID).Bytes())), nil
	case _timeType:
		if t, ok := wire.(time.Time); ok {
			return reflect.ValueOf(t), nil
		}
		return reflect.Value{}, fmt.Errorf("can not decode %T into a timestamp", wire)
	}

	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if !isNumeric(w.Kind()) {
			return reflect.Value{}, fmt.Errorf("can not decode %T into %s", wire, typ)
		}
		return w.Convert(typ), nil
	case reflect.String, reflect.Bool:
		if w.Kind() != typ.Kind() {
			return reflect.Value{}, fmt.Errorf("can not decode %T into %s", wire, typ)
		}
		return w.Convert(typ), nil
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 && w.Type().ConvertibleTo(typ) {
			return w.Convert(typ), nil
		}
	}

	if w.Type().AssignableTo(typ) {
		return w, nil
	}

	var text []byte
	switch raw := wire.(type) {
	case string:
		text = []byte(raw)
	case []byte:
		text = raw
	default:
		return reflect.Value{}, fmt.Errorf("can not decode %T into %s", wire, typ)
	}
	ptr := reflect.New(typ)
	if err := json.Unmarshal(text, ptr.Interface()); err != nil {
		return reflect.Value{}, errors.Wrapf(err, "failed to decode json into %s", typ)
	}
	return ptr.Elem(), nil
}

func decodeGocqlUUID(wire interface{}) (reflect.Value, error) {
	switch raw := wire.(type) {
	case gocql.UUID:
		return reflect.ValueOf(raw), nil
	case []byte:
		u, err := gocql.UUIDFromBytes(raw)
		return reflect.ValueOf(u), err
	case string:
		u, err := gocql.ParseUUID(raw)
		return reflect.ValueOf(u), err
	}
	return reflect.Value{}, fmt.Errorf("can not decode %T into a uuid", wire)
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
