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

package consistency

import (
	"context"

	"github.com/mboudraa/Achilles/pkg/storage"
	"go.uber.org/atomic"
)

// Declared is implemented by types carrying their own default levels,
// typically entity metadata. Unset means no declared default.
type Declared interface {
	DeclaredConsistency() (read, write Level)
}

// Policy holds the global default levels. It is immutable and shared by
// every call, per call overrides live in a Context.
type Policy struct {
	defaultRead  Level
	defaultWrite Level
}

// NewPolicy creates a policy with the given global defaults
func NewPolicy(defaultRead, defaultWrite Level) (*Policy, error) {
	if !defaultRead.IsSet() || !defaultWrite.IsSet() {
		return nil, storage.NewValidationError(
			"default consistency levels must be set, got read=%s write=%s",
			defaultRead, defaultWrite)
	}
	return &Policy{defaultRead: defaultRead, defaultWrite: defaultWrite}, nil
}

// DefaultRead returns the global default read level
func (p *Policy) DefaultRead() Level {
	return p.defaultRead
}

// DefaultWrite returns the global default write level
func (p *Policy) DefaultWrite() Level {
	return p.defaultWrite
}

// NewContext creates the call scoped state of one logical operation
func (p *Policy) NewContext() *Context {
	return &Context{policy: p}
}

// ReadLevel resolves the read level of an operation on d, honoring the
// overrides of the Context carried by ctx if any.
func (p *Policy) ReadLevel(ctx context.Context, d Declared) Level {
	if c, ok := FromContext(ctx); ok {
		return c.ReadLevel(d)
	}
	return p.NewContext().ReadLevel(d)
}

// WriteLevel resolves the write level of an operation on d, honoring the
// overrides of the Context carried by ctx if any.
func (p *Policy) WriteLevel(ctx context.Context, d Declared) Level {
	if c, ok := FromContext(ctx); ok {
		return c.WriteLevel(d)
	}
	return p.NewContext().WriteLevel(d)
}

// Context holds the current levels of one logical call. Resolution order
// is call override, then the declared level of the entity, then the
// global default.
type Context struct {
	policy *Policy
	read   atomic.Int32
	write  atomic.Int32
}

// SetReadConsistencyLevel overrides the read level until Reinit
func (c *Context) SetReadConsistencyLevel(l Level) error {
	if !l.IsSet() {
		return storage.NewValidationError("read consistency level should not be null")
	}
	c.read.Store(int32(l))
	return nil
}

// SetWriteConsistencyLevel overrides the write level until Reinit
func (c *Context) SetWriteConsistencyLevel(l Level) error {
	if !l.IsSet() {
		return storage.NewValidationError("write consistency level should not be null")
	}
	c.write.Store(int32(l))
	return nil
}

// Reinit drops both overrides, restoring the declared defaults
func (c *Context) Reinit() {
	c.read.Store(int32(Unset))
	c.write.Store(int32(Unset))
}

// ReadLevel returns the effective read level for d, which may be nil
func (c *Context) ReadLevel(d Declared) Level {
	var declared Level
	if d != nil {
		declared, _ = d.DeclaredConsistency()
	}
	return resolve(Level(c.read.Load()), declared, c.policy.defaultRead)
}

// WriteLevel returns the effective write level for d, which may be nil
func (c *Context) WriteLevel(d Declared) Level {
	var declared Level
	if d != nil {
		_, declared = d.DeclaredConsistency()
	}
	return resolve(Level(c.write.Load()), declared, c.policy.defaultWrite)
}

func resolve(levels ...Level) Level {
	for _, l := range levels {
		if l.IsSet() {
			return l
		}
	}
	return Unset
}

type contextKey string

// contextKeyConsistency references the call scoped Context
const contextKeyConsistency = contextKey("consistency.context")

// WithContext returns a context carrying c
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, contextKeyConsistency, c)
}

// FromContext returns the Context carried by ctx
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(contextKeyConsistency).(*Context)
	return c, ok && c != nil
}
