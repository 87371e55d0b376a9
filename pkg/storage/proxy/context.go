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
	"fmt"

	"github.com/mboudraa/Achilles/pkg/storage/metadata"
)

// Context is the persistence context a proxy reaches back to. It is
// implemented by the orm client.
type Context interface {
	// FetchJoin loads the target of a join property. reference is an entity
	// carrying only the target id. A missing target yields a nil proxy.
	FetchJoin(ctx context.Context, pm *metadata.PropertyMeta, reference interface{}) (*Proxy, error)

	// LoadProperty loads a property left out when the entity was found
	// and sets it on the entity of p.
	LoadProperty(ctx context.Context, p *Proxy, pm *metadata.PropertyMeta) error

	// IncrementCounter adds delta, which may be negative, to a counter
	IncrementCounter(
		ctx context.Context,
		em *metadata.EntityMeta,
		entity interface{},
		pm *metadata.PropertyMeta,
		delta int64) error

	// GetCounter reads the current value of a counter
	GetCounter(
		ctx context.Context,
		em *metadata.EntityMeta,
		entity interface{},
		pm *metadata.PropertyMeta) (int64, error)
}

// joinCache memoizes the targets fetched through the joins of one proxied
// instance, per property and target id. Missing targets are memoized as
// nil.
type joinCache struct {
	targets map[string]map[string]*Proxy
}

func newJoinCache() *joinCache {
	return &joinCache{targets: make(map[string]map[string]*Proxy)}
}

// resolve returns the proxied target of a reference, fetching it at most
// once per instance.
func (c *joinCache) resolve(
	ctx context.Context,
	pctx Context,
	pm *metadata.PropertyMeta,
	reference interface{},
) (*Proxy, error) {
	if isNil(reference) {
		return nil, nil
	}

	id := fmt.Sprint(pm.JoinIDMeta().GetValue(reference))
	byID, ok := c.targets[pm.Identity()]
	if !ok {
		byID = make(map[string]*Proxy)
		c.targets[pm.Identity()] = byID
	}
	if target, ok := byID[id]; ok {
		return target, nil
	}

	target, err := pctx.FetchJoin(ctx, pm, reference)
	if err != nil {
		return nil, err
	}
	byID[id] = target
	return target, nil
}

// forget drops the memoized targets of pm after the join was reassigned
func (c *joinCache) forget(pm *metadata.PropertyMeta) {
	delete(c.targets, pm.Identity())
}
