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
)

// Object is a marker interface that is used to add connector specific
// annotations to entities. Users embed this interface in any entity
// structure definition.
//
// For example:
//
//	type CompleteBean struct {
//		base.Object `cassandra:"name=complete_bean, read=LOCAL_QUORUM, write=ONE"`
//		ID          int64             `column:"name=id, id"`
//		Name        string            `column:"name=name"`
//		Friends     []string          `column:"name=friends, lazy"`
//		Followers   map[string]struct{} `column:"name=followers"`
//		User        *UserBean         `column:"name=user, join"`
//		Count       base.Counter      `column:"name=count"`
//	}
//
// Here, base.Object is embedded in CompleteBean just to carry the table
// name and the default read/write consistency of the entity. Every mapped
// field carries a `column` annotation, untagged fields are not persisted.
type Object interface{}

// Counter is the type of a counter property. Counter columns can not be
// written through insert or update statements, so entities expose them
// through this interface and every mutation is sent to the store right away.
type Counter interface {
	// Get returns the current value of the counter
	Get(ctx context.Context) (int64, error)
	// Incr increments the counter by one
	Incr(ctx context.Context) error
	// IncrBy increments the counter by delta
	IncrBy(ctx context.Context, delta int64) error
	// Decr decrements the counter by one
	Decr(ctx context.Context) error
	// DecrBy decrements the counter by delta
	DecrBy(ctx context.Context, delta int64) error
}

// KeyConstructor can be implemented by compound key types that must be
// built through a constructor rather than by direct field assignment.
//
// Constructor returns the constructor function and the component name
// bound to each of its arguments, in argument order. Every component
// declared with an `order` annotation must appear exactly once.
type KeyConstructor interface {
	Constructor() (fn interface{}, argNames []string)
}
