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
	"reflect"
	"strconv"
	"strings"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/consistency"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
)

const (
	// entityTagKey annotates the embedded base.Object of an entity
	entityTagKey = "cassandra"
	// columnTagKey annotates every mapped field
	columnTagKey = "column"

	_name       = "name"
	_read       = "read"
	_write      = "write"
	_id         = "id"
	_embeddedID = "embeddedid"
	_lazy       = "lazy"
	_join       = "join"
	_order      = "order"
)

var (
	_objectType  = reflect.TypeOf((*base.Object)(nil)).Elem()
	_counterType = reflect.TypeOf((*base.Counter)(nil)).Elem()
	_keyCtorType = reflect.TypeOf((*base.KeyConstructor)(nil)).Elem()
	_emptyStruct = reflect.TypeOf(struct{}{})
)

// parseTag parses annotations of the form "name=x, flag, key=value" into
// a map. Option names are lower-cased, flags map to an empty value.
func parseTag(tag string) (map[string]string, bool) {
	opts := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if key == "" {
			return nil, false
		}
		value := ""
		if len(kv) == 2 {
			value = strings.TrimSpace(kv[1])
			if value == "" {
				return nil, false
			}
		}
		if _, ok := opts[key]; ok {
			return nil, false
		}
		opts[key] = value
	}
	return opts, true
}

// session builds the metadata of one entity type together with every join
// target it reaches. Nothing is published until the whole session succeeds.
type session struct {
	registry *Registry
	built    map[reflect.Type]*EntityMeta
	order    []*EntityMeta
	joins    []*PropertyMeta
}

func newSession(r *Registry) *session {
	return &session{
		registry: r,
		built:    make(map[reflect.Type]*EntityMeta),
	}
}

// resolve returns published metadata, in-progress metadata of this session
// (a back-link for join cycles), or builds it.
func (s *session) resolve(t reflect.Type) (*EntityMeta, error) {
	if em, ok := s.registry.load(t); ok {
		return em, nil
	}
	if em, ok := s.built[t]; ok {
		return em, nil
	}
	return s.build(t)
}

func (s *session) build(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() != reflect.Struct {
		return nil, storage.NewMappingError(t.String(), "",
			"entity must be a struct, got %s", t.Kind())
	}

	em := &EntityMeta{
		Type:          t,
		TypeName:      t.Name(),
		QualifiedName: t.PkgPath() + "." + t.Name(),
		byName:        make(map[string]*PropertyMeta),
	}
	s.built[t] = em
	s.order = append(s.order, em)

	if err := s.parseEntityTag(em); err != nil {
		return nil, err
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == _objectType {
			continue
		}
		tag, ok := field.Tag.Lookup(columnTagKey)
		if !ok {
			continue
		}
		pm, err := s.parseProperty(em, field, tag)
		if err != nil {
			return nil, err
		}
		pm.Position = len(em.properties)
		key := pm.Identity()
		if _, dup := em.byName[key]; dup {
			return nil, storage.NewMappingError(em.TypeName, pm.Name,
				"duplicated column name")
		}
		if pm.Kind.IsID() {
			if em.IDMeta != nil {
				return nil, storage.NewMappingError(em.TypeName, pm.Name,
					"more than one id declared, '%s' is already the id", em.IDMeta.Name)
			}
			em.IDMeta = pm
		}
		em.byName[key] = pm
		em.properties = append(em.properties, pm)
	}

	if em.IDMeta == nil {
		return nil, storage.NewMappingError(em.TypeName, "", "no id property found")
	}

	if em.IDMeta.IsEmbeddedID() {
		for _, name := range em.IDMeta.MultiKey.ComponentNames {
			if other, dup := em.byName[strings.ToLower(name)]; dup && other != em.IDMeta {
				return nil, storage.NewMappingError(em.TypeName, name,
					"compound key component clashes with a property of the same name")
			}
		}
	}

	em.eager = append(em.eager, em.IDMeta)
	counters := 0
	for _, pm := range em.properties {
		if pm.IsCounter() {
			counters++
		}
		if pm == em.IDMeta || pm.Lazy || pm.IsJoin() || pm.IsCounter() {
			continue
		}
		em.eager = append(em.eager, pm)
	}
	em.ClusteredCounter = em.IDMeta.IsEmbeddedID() && counters > 0 &&
		counters == len(em.properties)-1

	return em, nil
}

func (s *session) parseEntityTag(em *EntityMeta) error {
	field, ok := em.Type.FieldByName(_objectType.Name())
	if !ok || !field.Anonymous || field.Type != _objectType {
		return storage.NewMappingError(em.TypeName, "", "entity must embed base.Object")
	}
	tag, ok := field.Tag.Lookup(entityTagKey)
	if !ok {
		return storage.NewMappingError(em.TypeName, "",
			"missing '%s' annotation on base.Object", entityTagKey)
	}
	opts, ok := parseTag(tag)
	if !ok {
		return storage.NewMappingError(em.TypeName, "", "malformed annotation %q", tag)
	}

	em.TableName = strings.ToLower(em.TypeName)
	if name, ok := opts[_name]; ok {
		em.TableName = strings.ToLower(name)
	}

	var err error
	if level, ok := opts[_read]; ok {
		if em.ReadLevel, err = consistency.ParseLevel(level); err != nil {
			return storage.NewMappingError(em.TypeName, "", "invalid read consistency %q", level)
		}
	}
	if level, ok := opts[_write]; ok {
		if em.WriteLevel, err = consistency.ParseLevel(level); err != nil {
			return storage.NewMappingError(em.TypeName, "", "invalid write consistency %q", level)
		}
	}
	return nil
}

func (s *session) parseProperty(
	em *EntityMeta,
	field reflect.StructField,
	tag string,
) (*PropertyMeta, error) {
	opts, ok := parseTag(tag)
	if !ok {
		return nil, storage.NewMappingError(em.TypeName, field.Name,
			"malformed column annotation %q", tag)
	}
	if field.PkgPath != "" {
		return nil, storage.NewMappingError(em.TypeName, field.Name,
			"mapped field must be exported")
	}

	pm := &PropertyMeta{
		Name:      strings.ToLower(field.Name),
		FieldName: field.Name,
		Entity:    em.TypeName,
		FieldType: field.Type,
		ValueType: field.Type,
		accessor:  fieldAccessor(field.Index),
	}
	if name, ok := opts[_name]; ok {
		pm.Name = strings.ToLower(name)
	}
	if _, ok := opts[_order]; ok {
		return nil, storage.NewMappingError(em.TypeName, pm.Name,
			"'order' is only allowed on compound key components")
	}

	_, isID := opts[_id]
	_, isEmbeddedID := opts[_embeddedID]
	_, pm.Lazy = opts[_lazy]
	_, isJoin := opts[_join]

	switch {
	case isID && isEmbeddedID:
		return nil, storage.NewMappingError(em.TypeName, pm.Name,
			"property can not be both id and embedded id")
	case isID:
		if !isScalar(field.Type) {
			return nil, storage.NewMappingError(em.TypeName, pm.Name,
				"id must be a scalar type, got %s", field.Type)
		}
		pm.Kind = KindID
		return pm, nil
	case isEmbeddedID:
		pm.Kind = KindEmbeddedID
		mk, err := parseMultiKey(em, pm)
		if err != nil {
			return nil, err
		}
		pm.MultiKey = mk
		return pm, nil
	}

	if field.Type == _counterType {
		if isJoin || pm.Lazy {
			return nil, storage.NewMappingError(em.TypeName, pm.Name,
				"counter can not be lazy or a join")
		}
		pm.Kind = KindCounter
		return pm, nil
	}

	pm.Kind = KindSimple
	switch field.Type.Kind() {
	case reflect.Slice:
		if field.Type.Elem().Kind() != reflect.Uint8 {
			pm.Kind = KindList
			pm.ValueType = field.Type.Elem()
		}
	case reflect.Map:
		pm.KeyType = field.Type.Key()
		pm.ValueType = field.Type.Elem()
		pm.Kind = KindMap
		if field.Type.Elem() == _emptyStruct {
			pm.Kind = KindSet
			pm.ValueType = field.Type.Key()
			pm.KeyType = nil
		}
	}

	if isJoin {
		pm.Kind, _ = pm.Kind.joinOf()
		if err := s.parseJoin(em, pm); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

func (s *session) parseJoin(em *EntityMeta, pm *PropertyMeta) error {
	target := pm.ValueType
	if target.Kind() != reflect.Ptr || target.Elem().Kind() != reflect.Struct {
		return storage.NewMappingError(em.TypeName, pm.Name,
			"join target must be a pointer to an entity, got %s", target)
	}
	joinMeta, err := s.resolve(target.Elem())
	if err != nil {
		return err
	}
	pm.JoinMeta = joinMeta
	s.joins = append(s.joins, pm)
	return nil
}

// checkJoins runs once every entity of the session is built, join cycles
// may have linked metadata whose id was not yet parsed.
func (s *session) checkJoins() error {
	for _, pm := range s.joins {
		idMeta := pm.JoinMeta.IDMeta
		if idMeta == nil {
			return storage.NewMappingError(pm.Entity, pm.Name,
				"join target %s has no registered id", pm.JoinMeta.TypeName)
		}
		if idMeta.IsEmbeddedID() {
			return storage.NewMappingError(pm.Entity, pm.Name,
				"join target %s must have a simple id", pm.JoinMeta.TypeName)
		}
	}
	return nil
}

// parseMultiKey builds the descriptor of an embedded id
func parseMultiKey(em *EntityMeta, pm *PropertyMeta) (*MultiKeyDescriptor, error) {
	keyType := pm.FieldType
	if keyType.Kind() == reflect.Ptr {
		keyType = keyType.Elem()
	}
	if keyType.Kind() != reflect.Struct {
		return nil, storage.NewMappingError(em.TypeName, pm.Name,
			"embedded id must be a struct, got %s", pm.FieldType)
	}

	type component struct {
		order    int
		name     string
		typ      reflect.Type
		accessor Accessor
	}
	byOrder := make(map[int]component)
	for i := 0; i < keyType.NumField(); i++ {
		field := keyType.Field(i)
		tag, ok := field.Tag.Lookup(columnTagKey)
		if !ok {
			continue
		}
		opts, ok := parseTag(tag)
		if !ok {
			return nil, storage.NewMappingError(em.TypeName, field.Name,
				"malformed column annotation %q", tag)
		}
		if field.PkgPath != "" {
			return nil, storage.NewMappingError(em.TypeName, field.Name,
				"compound key component must be exported")
		}
		rawOrder, ok := opts[_order]
		if !ok {
			return nil, storage.NewMappingError(em.TypeName, field.Name,
				"compound key component must declare an 'order'")
		}
		order, err := strconv.Atoi(rawOrder)
		if err != nil {
			return nil, storage.NewMappingError(em.TypeName, field.Name,
				"invalid component order %q", rawOrder)
		}
		if _, dup := byOrder[order]; dup {
			return nil, storage.NewMappingError(em.TypeName, field.Name,
				"duplicated component order %d in key %s", order, keyType.Name())
		}
		if field.Type == _counterType || !isScalar(field.Type) {
			return nil, storage.NewMappingError(em.TypeName, field.Name,
				"compound key component must be a scalar type, got %s", field.Type)
		}
		name := strings.ToLower(field.Name)
		if n, ok := opts[_name]; ok {
			name = strings.ToLower(n)
		}
		byOrder[order] = component{
			order:    order,
			name:     name,
			typ:      field.Type,
			accessor: fieldAccessor(field.Index),
		}
	}

	if len(byOrder) < 2 {
		return nil, storage.NewMappingError(em.TypeName, pm.Name,
			"compound key %s must have at least 2 components, found %d",
			keyType.Name(), len(byOrder))
	}

	mk := &MultiKeyDescriptor{KeyType: keyType}
	for order := 1; order <= len(byOrder); order++ {
		c, ok := byOrder[order]
		if !ok {
			return nil, storage.NewMappingError(em.TypeName, pm.Name,
				"component orders of key %s must be contiguous from 1, %d is missing",
				keyType.Name(), order)
		}
		mk.ComponentTypes = append(mk.ComponentTypes, c.typ)
		mk.ComponentNames = append(mk.ComponentNames, c.name)
		mk.componentAccessors = append(mk.componentAccessors, c.accessor)
	}

	if err := parseKeyConstructor(em, pm, mk); err != nil {
		return nil, err
	}
	return mk, nil
}

// parseKeyConstructor validates the optional constructor of a compound key.
// Every component must be bound to exactly one argument position.
func parseKeyConstructor(em *EntityMeta, pm *PropertyMeta, mk *MultiKeyDescriptor) error {
	var kc base.KeyConstructor
	switch {
	case mk.KeyType.Implements(_keyCtorType):
		kc = reflect.Zero(mk.KeyType).Interface().(base.KeyConstructor)
	case reflect.PtrTo(mk.KeyType).Implements(_keyCtorType):
		kc = reflect.New(mk.KeyType).Interface().(base.KeyConstructor)
	default:
		return nil
	}

	fn, argNames := kc.Constructor()
	ctor := reflect.ValueOf(fn)
	if !ctor.IsValid() || ctor.Kind() != reflect.Func {
		return storage.NewMappingError(em.TypeName, pm.Name,
			"constructor of key %s is not a function", mk.KeyType.Name())
	}
	ft := ctor.Type()
	if ft.NumOut() != 1 || (ft.Out(0) != mk.KeyType && ft.Out(0) != reflect.PtrTo(mk.KeyType)) {
		return storage.NewMappingError(em.TypeName, pm.Name,
			"constructor of key %s must return a %s", mk.KeyType.Name(), mk.KeyType.Name())
	}
	if ft.NumIn() != len(argNames) {
		return storage.NewMappingError(em.TypeName, pm.Name,
			"constructor of key %s takes %d arguments but %d names are bound",
			mk.KeyType.Name(), ft.NumIn(), len(argNames))
	}

	positions := make(map[string]int, len(argNames))
	for i, name := range argNames {
		name = strings.ToLower(name)
		if _, dup := positions[name]; dup {
			return storage.NewMappingError(em.TypeName, pm.Name,
				"constructor argument '%s' of key %s is bound twice", name, mk.KeyType.Name())
		}
		positions[name] = i
	}

	mk.argPositions = make([]int, mk.Len())
	for i, name := range mk.ComponentNames {
		pos, ok := positions[strings.ToLower(name)]
		if !ok {
			return storage.NewMappingError(em.TypeName, pm.Name,
				"component '%s' of key %s has no constructor argument", name, mk.KeyType.Name())
		}
		if ft.In(pos) != mk.ComponentTypes[i] {
			return storage.NewMappingError(em.TypeName, pm.Name,
				"constructor argument %d of key %s is a %s, component '%s' is a %s",
				pos, mk.KeyType.Name(), ft.In(pos), name, mk.ComponentTypes[i])
		}
		mk.argPositions[i] = pos
		delete(positions, strings.ToLower(name))
	}
	for name := range positions {
		return storage.NewMappingError(em.TypeName, pm.Name,
			"constructor argument '%s' of key %s matches no component", name, mk.KeyType.Name())
	}
	mk.constructor = ctor
	return nil
}

// isScalar returns false for collection types. Byte slices are blobs and
// fixed-size arrays, gocql.UUID among them, are single values.
func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	case reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return false
	}
	return true
}

var errNilType = storage.NewMappingError("<nil>", "", "entity type can not be nil")
