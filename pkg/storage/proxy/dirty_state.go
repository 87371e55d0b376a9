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
	"sort"

	"github.com/mboudraa/Achilles/pkg/storage/metadata"
)

// DirtyState records the properties of one entity instance mutated since
// it was loaded or last flushed. Repeated mutations of a property collapse
// to a single entry.
type DirtyState struct {
	props map[string]*metadata.PropertyMeta
}

// NewDirtyState creates an empty DirtyState
func NewDirtyState() *DirtyState {
	return &DirtyState{props: make(map[string]*metadata.PropertyMeta)}
}

// MarkDirty records pm as mutated
func (ds *DirtyState) MarkDirty(pm *metadata.PropertyMeta) {
	ds.props[pm.Identity()] = pm
}

// IsDirty returns true if pm was mutated
func (ds *DirtyState) IsDirty(pm *metadata.PropertyMeta) bool {
	_, ok := ds.props[pm.Identity()]
	return ok
}

// Len returns the number of dirty properties
func (ds *DirtyState) Len() int {
	return len(ds.props)
}

// Properties returns the dirty properties in entity declaration order
func (ds *DirtyState) Properties() []*metadata.PropertyMeta {
	props := make([]*metadata.PropertyMeta, 0, len(ds.props))
	for _, pm := range ds.props {
		props = append(props, pm)
	}
	sort.Slice(props, func(i, j int) bool {
		return props[i].Position < props[j].Position
	})
	return props
}

// Clear forgets every dirty property
func (ds *DirtyState) Clear() {
	for k := range ds.props {
		delete(ds.props, k)
	}
}
