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
	"sync"

	log "github.com/sirupsen/logrus"
)

var _default = NewRegistry()

// Default returns the process-wide registry
func Default() *Registry {
	return _default
}

// Registry is a lazily populated, append-only cache of entity metadata keyed
// by go type. Reads are lock free, builds are serialized so that concurrent
// first use of a type converges to one shared *EntityMeta.
type Registry struct {
	metas sync.Map // reflect.Type -> *EntityMeta

	// buildLock serializes build sessions
	buildLock sync.Mutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the metadata of the type of entity. entity may be a struct
// value, a pointer to it, or a reflect.Type.
func (r *Registry) Get(entity interface{}) (*EntityMeta, error) {
	if t, ok := entity.(reflect.Type); ok {
		return r.GetType(t)
	}
	return r.GetType(reflect.TypeOf(entity))
}

// MustGet is like Get but panics on mapping errors
func (r *Registry) MustGet(entity interface{}) *EntityMeta {
	em, err := r.Get(entity)
	if err != nil {
		panic(err)
	}
	return em
}

// GetType returns the metadata of t, building it on first use
func (r *Registry) GetType(t reflect.Type) (*EntityMeta, error) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return nil, errNilType
	}
	if em, ok := r.load(t); ok {
		return em, nil
	}

	r.buildLock.Lock()
	defer r.buildLock.Unlock()

	if em, ok := r.load(t); ok {
		return em, nil
	}

	s := newSession(r)
	em, err := s.build(t)
	if err == nil {
		err = s.checkJoins()
	}
	if err != nil {
		log.WithError(err).
			WithField("entity", t.String()).
			Error("failed to build entity metadata")
		return nil, err
	}

	for _, built := range s.order {
		r.metas.LoadOrStore(built.Type, built)
		log.WithFields(log.Fields{
			"entity": built.TypeName,
			"table":  built.TableName,
		}).Debug("entity metadata registered")
	}
	return em, nil
}

// Lookup returns the metadata of the type of entity if it was already
// built. It never builds.
func (r *Registry) Lookup(entity interface{}) (*EntityMeta, bool) {
	t, ok := entity.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(entity)
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return nil, false
	}
	return r.load(t)
}

// Types returns every registered entity type
func (r *Registry) Types() []reflect.Type {
	var types []reflect.Type
	r.metas.Range(func(k, _ interface{}) bool {
		types = append(types, k.(reflect.Type))
		return true
	})
	return types
}

func (r *Registry) load(t reflect.Type) (*EntityMeta, bool) {
	v, ok := r.metas.Load(t)
	if !ok {
		return nil, false
	}
	return v.(*EntityMeta), true
}
