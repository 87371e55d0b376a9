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
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
)

// wrapper holds what every collection wrapper is bound to: the owning
// entity and its persistence context, the wrapped property and the dirty
// state of the entity.
type wrapper struct {
	pctx   Context
	target interface{}
	pm     *metadata.PropertyMeta
	dirty  *DirtyState
	joins  *joinCache
}

// field returns the wrapped field of the entity. It is read on every call
// so that the wrapper never works on a stale collection.
func (w *wrapper) field() reflect.Value {
	return w.pm.Field(w.target)
}

func (w *wrapper) markDirty() {
	if w.dirty != nil {
		w.dirty.MarkDirty(w.pm)
	}
}

// PropertyMeta returns the wrapped property
func (w *wrapper) PropertyMeta() *metadata.PropertyMeta {
	return w.pm
}

// Resolve returns the proxied join target of element, fetching it through
// the persistence context on first access. It is only valid for joins.
func (w *wrapper) Resolve(ctx context.Context, element interface{}) (*Proxy, error) {
	if !w.pm.IsJoin() {
		return nil, storage.NewValidationError("property '%s' is not a join", w.pm.Name)
	}
	return w.joins.resolve(ctx, w.pctx, w.pm, element)
}

// convert turns v into a value of typ, nil becoming the zero value
func (w *wrapper) convert(v interface{}, typ reflect.Type) (reflect.Value, error) {
	if target, ok := v.(*Proxy); ok {
		v = target.Entity()
	}
	if v == nil {
		return reflect.Zero(typ), nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(typ):
		return rv, nil
	case rv.Type().ConvertibleTo(typ) && rv.Kind() == typ.Kind():
		return rv.Convert(typ), nil
	}
	return reflect.Value{}, storage.NewValidationError("can not use a %T as element of property '%s' of type %s",
		v, w.pm.Name, w.pm.FieldType)
}

// equal compares an element with v, converted the way mutations convert
// their arguments
func (w *wrapper) equal(a reflect.Value, v interface{}) bool {
	b, err := w.convert(v, a.Type())
	if err != nil {
		return false
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

type wrapperBuilder struct {
	pctx   Context
	target interface{}
	pm     *metadata.PropertyMeta
	dirty  *DirtyState
	joins  *joinCache
}

func (b *wrapperBuilder) build() wrapper {
	joins := b.joins
	if joins == nil {
		joins = newJoinCache()
	}
	return wrapper{
		pctx:   b.pctx,
		target: b.target,
		pm:     b.pm,
		dirty:  b.dirty,
		joins:  joins,
	}
}

// ListWrapperBuilder builds a ListWrapper
type ListWrapperBuilder struct {
	b wrapperBuilder
}

// NewListWrapperBuilder starts building the wrapper of a list property of
// target, an entity bound to pctx.
func NewListWrapperBuilder(pctx Context, target interface{}) *ListWrapperBuilder {
	return &ListWrapperBuilder{b: wrapperBuilder{pctx: pctx, target: target}}
}

// DirtyState sets the dirty state mutations are recorded in
func (lb *ListWrapperBuilder) DirtyState(ds *DirtyState) *ListWrapperBuilder {
	lb.b.dirty = ds
	return lb
}

// PropertyMeta sets the wrapped property
func (lb *ListWrapperBuilder) PropertyMeta(pm *metadata.PropertyMeta) *ListWrapperBuilder {
	lb.b.pm = pm
	return lb
}

func (lb *ListWrapperBuilder) joinCache(c *joinCache) *ListWrapperBuilder {
	lb.b.joins = c
	return lb
}

// Build creates the ListWrapper
func (lb *ListWrapperBuilder) Build() *ListWrapper {
	return &ListWrapper{wrapper: lb.b.build()}
}

// SetWrapperBuilder builds a SetWrapper
type SetWrapperBuilder struct {
	b wrapperBuilder
}

// NewSetWrapperBuilder starts building the wrapper of a set property of
// target, an entity bound to pctx.
func NewSetWrapperBuilder(pctx Context, target interface{}) *SetWrapperBuilder {
	return &SetWrapperBuilder{b: wrapperBuilder{pctx: pctx, target: target}}
}

// DirtyState sets the dirty state mutations are recorded in
func (sb *SetWrapperBuilder) DirtyState(ds *DirtyState) *SetWrapperBuilder {
	sb.b.dirty = ds
	return sb
}

// PropertyMeta sets the wrapped property
func (sb *SetWrapperBuilder) PropertyMeta(pm *metadata.PropertyMeta) *SetWrapperBuilder {
	sb.b.pm = pm
	return sb
}

func (sb *SetWrapperBuilder) joinCache(c *joinCache) *SetWrapperBuilder {
	sb.b.joins = c
	return sb
}

// Build creates the SetWrapper
func (sb *SetWrapperBuilder) Build() *SetWrapper {
	return &SetWrapper{wrapper: sb.b.build()}
}

// MapWrapperBuilder builds a MapWrapper
type MapWrapperBuilder struct {
	b wrapperBuilder
}

// NewMapWrapperBuilder starts building the wrapper of a map property of
// target, an entity bound to pctx.
func NewMapWrapperBuilder(pctx Context, target interface{}) *MapWrapperBuilder {
	return &MapWrapperBuilder{b: wrapperBuilder{pctx: pctx, target: target}}
}

// DirtyState sets the dirty state mutations are recorded in
func (mb *MapWrapperBuilder) DirtyState(ds *DirtyState) *MapWrapperBuilder {
	mb.b.dirty = ds
	return mb
}

// PropertyMeta sets the wrapped property
func (mb *MapWrapperBuilder) PropertyMeta(pm *metadata.PropertyMeta) *MapWrapperBuilder {
	mb.b.pm = pm
	return mb
}

func (mb *MapWrapperBuilder) joinCache(c *joinCache) *MapWrapperBuilder {
	mb.b.joins = c
	return mb
}

// Build creates the MapWrapper
func (mb *MapWrapperBuilder) Build() *MapWrapper {
	return &MapWrapper{wrapper: mb.b.build()}
}
