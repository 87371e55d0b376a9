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

// Package proxy makes the mutations of an entity observable. A Proxy wraps
// one entity instance: scalar writes go through Set, collections are handed
// out wrapped so that structural changes are recorded, joins and lazy
// properties are loaded through the persistence Context on first read.
//
// A Proxy is owned by one unit of work and is not safe for concurrent use.
package proxy

import (
	"context"
	"reflect"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
)

// State is the flush state of a proxied instance
type State int

const (
	// StateClean means no property was mutated since load or last flush
	StateClean State = iota
	// StateDirty means at least one property awaits a flush
	StateDirty
)

// String returns the name of the state
func (s State) String() string {
	if s == StateDirty {
		return "DIRTY"
	}
	return "CLEAN"
}

// Proxy tracks the mutations of one entity instance
type Proxy struct {
	meta   *metadata.EntityMeta
	entity interface{}
	pctx   Context
	dirty  *DirtyState
	loaded map[string]bool
	joins  *joinCache
}

// New wraps entity, a pointer to an instance of em. The eager properties
// of em are considered loaded.
func New(pctx Context, em *metadata.EntityMeta, entity interface{}) *Proxy {
	return NewLoaded(pctx, em, entity, em.EagerMetas())
}

// NewLoaded wraps entity like New, only the given properties being
// considered loaded. The others are loaded on first read.
func NewLoaded(
	pctx Context,
	em *metadata.EntityMeta,
	entity interface{},
	loaded []*metadata.PropertyMeta,
) *Proxy {
	p := &Proxy{
		meta:   em,
		entity: entity,
		pctx:   pctx,
		dirty:  NewDirtyState(),
		loaded: make(map[string]bool, len(loaded)),
		joins:  newJoinCache(),
	}
	for _, pm := range loaded {
		p.MarkLoaded(pm)
	}
	return p
}

// Meta returns the metadata of the proxied entity
func (p *Proxy) Meta() *metadata.EntityMeta {
	return p.meta
}

// Entity returns the proxied entity, the proxy itself being transparent
func (p *Proxy) Entity() interface{} {
	return p.entity
}

// State returns CLEAN or DIRTY
func (p *Proxy) State() State {
	if p.dirty.Len() > 0 {
		return StateDirty
	}
	return StateClean
}

// DirtyState returns the dirty state handle shared with the wrappers
func (p *Proxy) DirtyState() *DirtyState {
	return p.dirty
}

// DirtyProperties returns the properties to flush, in declaration order
func (p *Proxy) DirtyProperties() []*metadata.PropertyMeta {
	return p.dirty.Properties()
}

// Acknowledge is called by the persistence context once the dirty
// properties were flushed. It is the only way back to CLEAN.
func (p *Proxy) Acknowledge() {
	p.dirty.Clear()
}

// MarkLoaded records pm as materialized on the entity
func (p *Proxy) MarkLoaded(pm *metadata.PropertyMeta) {
	p.loaded[pm.Identity()] = true
}

// IsLoaded returns true if pm was materialized on the entity
func (p *Proxy) IsLoaded(pm *metadata.PropertyMeta) bool {
	return p.loaded[pm.Identity()]
}

func (p *Proxy) owns(pm *metadata.PropertyMeta) error {
	if pm == nil {
		return storage.NewValidationError("property of entity %s can not be nil", p.meta.TypeName)
	}
	if owned, ok := p.meta.Property(pm.Name); !ok || owned != pm {
		return storage.NewValidationError("property '%s' does not belong to entity %s",
			pm.Name, p.meta.TypeName)
	}
	return nil
}

// Set writes value to pm and marks it dirty. The id can not be changed and
// counters are only mutated through their wrapper.
func (p *Proxy) Set(pm *metadata.PropertyMeta, value interface{}) error {
	if err := p.owns(pm); err != nil {
		return err
	}
	switch {
	case pm.Kind.IsID():
		return storage.NewValidationError("can not change the primary key of entity %s",
			p.meta.TypeName)
	case pm.IsCounter():
		return storage.NewValidationError("counter '%s' of entity %s can not be set",
			pm.Name, p.meta.TypeName)
	}

	if target, ok := value.(*Proxy); ok {
		value = target.Entity()
	}
	if err := pm.SetValue(p.entity, value); err != nil {
		return err
	}
	if pm.IsJoin() {
		p.joins.forget(pm)
	}
	p.MarkLoaded(pm)
	p.dirty.MarkDirty(pm)
	return nil
}

// Get reads pm from the entity. Collections are returned wrapped, joins
// as the *Proxy of their target, counters as a base.Counter. Lazy
// properties and joins are loaded on first read.
func (p *Proxy) Get(ctx context.Context, pm *metadata.PropertyMeta) (interface{}, error) {
	if err := p.owns(pm); err != nil {
		return nil, err
	}
	if pm.IsCounter() {
		return NewCounterWrapper(p.pctx, p.meta, p.entity, pm), nil
	}

	if !p.IsLoaded(pm) {
		if err := p.pctx.LoadProperty(ctx, p, pm); err != nil {
			return nil, err
		}
		p.MarkLoaded(pm)
	}

	switch pm.Kind {
	case metadata.KindJoinSimple:
		target, err := p.joins.resolve(ctx, p.pctx, pm, pm.GetValue(p.entity))
		if err != nil || target == nil {
			return nil, err
		}
		return target, nil
	case metadata.KindList, metadata.KindJoinList:
		return NewListWrapperBuilder(p.pctx, p.entity).
			DirtyState(p.dirty).
			PropertyMeta(pm).
			joinCache(p.joins).
			Build(), nil
	case metadata.KindSet, metadata.KindJoinSet:
		return NewSetWrapperBuilder(p.pctx, p.entity).
			DirtyState(p.dirty).
			PropertyMeta(pm).
			joinCache(p.joins).
			Build(), nil
	case metadata.KindMap, metadata.KindJoinMap:
		return NewMapWrapperBuilder(p.pctx, p.entity).
			DirtyState(p.dirty).
			PropertyMeta(pm).
			joinCache(p.joins).
			Build(), nil
	}
	return pm.GetValue(p.entity), nil
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
