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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetachedCounter(t *testing.T) {
	ctx := context.Background()
	c := NewCounter(10)

	assert.NoError(t, c.Incr(ctx))
	assert.NoError(t, c.IncrBy(ctx, 5))
	assert.NoError(t, c.Decr(ctx))
	assert.NoError(t, c.DecrBy(ctx, 4))

	v, err := c.Get(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(11), v)
}

func TestDetachedCounterConcurrentIncr(t *testing.T) {
	ctx := context.Background()
	c := NewCounter(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Incr(ctx)
		}()
	}
	wg.Wait()

	v, _ := c.Get(ctx)
	assert.Equal(t, int64(50), v)
}
