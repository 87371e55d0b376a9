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

package base

import (
	"context"

	"go.uber.org/atomic"
)

// DetachedCounter is a counter not yet bound to a persisted entity. It
// counts in memory, and persisting its entity seeds the stored counter
// with its value.
type DetachedCounter struct {
	value atomic.Int64
}

var _ Counter = (*DetachedCounter)(nil)

// NewCounter returns a DetachedCounter starting at v
func NewCounter(v int64) *DetachedCounter {
	c := &DetachedCounter{}
	c.value.Store(v)
	return c
}

// Get returns the current value of the counter
func (c *DetachedCounter) Get(ctx context.Context) (int64, error) {
	return c.value.Load(), nil
}

// Incr increments the counter by one
func (c *DetachedCounter) Incr(ctx context.Context) error {
	return c.IncrBy(ctx, 1)
}

// IncrBy increments the counter by delta
func (c *DetachedCounter) IncrBy(ctx context.Context, delta int64) error {
	c.value.Add(delta)
	return nil
}

// Decr decrements the counter by one
func (c *DetachedCounter) Decr(ctx context.Context) error {
	return c.DecrBy(ctx, 1)
}

// DecrBy decrements the counter by delta
func (c *DetachedCounter) DecrBy(ctx context.Context, delta int64) error {
	c.value.Sub(delta)
	return nil
}
