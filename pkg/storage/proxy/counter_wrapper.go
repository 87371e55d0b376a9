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

	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
)

// CounterWrapper exposes a counter property of an entity. Every call goes
// straight to the persistence context, counters are never part of a flush.
type CounterWrapper struct {
	pctx   Context
	meta   *metadata.EntityMeta
	target interface{}
	pm     *metadata.PropertyMeta
}

var _ base.Counter = (*CounterWrapper)(nil)

// NewCounterWrapper creates the counter of property pm of target
func NewCounterWrapper(
	pctx Context,
	em *metadata.EntityMeta,
	target interface{},
	pm *metadata.PropertyMeta,
) *CounterWrapper {
	return &CounterWrapper{pctx: pctx, meta: em, target: target, pm: pm}
}

// Get returns the current value of the counter
func (c *CounterWrapper) Get(ctx context.Context) (int64, error) {
	return c.pctx.GetCounter(ctx, c.meta, c.target, c.pm)
}

// Incr increments the counter by one
func (c *CounterWrapper) Incr(ctx context.Context) error {
	return c.IncrBy(ctx, 1)
}

// IncrBy increments the counter by delta
func (c *CounterWrapper) IncrBy(ctx context.Context, delta int64) error {
	return c.pctx.IncrementCounter(ctx, c.meta, c.target, c.pm, delta)
}

// Decr decrements the counter by one
func (c *CounterWrapper) Decr(ctx context.Context) error {
	return c.DecrBy(ctx, 1)
}

// DecrBy decrements the counter by delta
func (c *CounterWrapper) DecrBy(ctx context.Context, delta int64) error {
	return c.pctx.IncrementCounter(ctx, c.meta, c.target, c.pm, -delta)
}
