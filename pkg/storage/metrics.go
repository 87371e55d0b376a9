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

package storage

import (
	"github.com/uber-go/tally/v4"
)

// OrmMetrics tracks counters for entity operations of the ORM layer
type OrmMetrics struct {
	EntityPersist     tally.Counter
	EntityPersistFail tally.Counter

	EntityFind         tally.Counter
	EntityFindFail     tally.Counter
	EntityFindNotFound tally.Counter

	EntityUpdate     tally.Counter
	EntityUpdateFail tally.Counter
	// EntityUpdateNoop counts updates of proxies with no dirty property
	EntityUpdateNoop tally.Counter

	EntityRemove     tally.Counter
	EntityRemoveFail tally.Counter

	TypedQuery     tally.Counter
	TypedQueryFail tally.Counter

	LazyLoad     tally.Counter
	LazyLoadFail tally.Counter

	JoinFetch     tally.Counter
	JoinFetchFail tally.Counter

	CounterIncr     tally.Counter
	CounterIncrFail tally.Counter
	CounterGet      tally.Counter
	CounterGetFail  tally.Counter

	// DirtyProperties records the number of properties flushed per update
	DirtyProperties tally.Histogram
}

// NewOrmMetrics returns a new OrmMetrics struct, with all metrics
// initialized and rooted at the given tally.Scope
func NewOrmMetrics(scope tally.Scope) *OrmMetrics {
	entityScope := scope.SubScope("entity")
	entitySuccessScope := entityScope.Tagged(map[string]string{"result": "success"})
	entityFailScope := entityScope.Tagged(map[string]string{"result": "fail"})
	entityNotFoundScope := entityScope.Tagged(map[string]string{"result": "not_found"})
	entityNoopScope := entityScope.Tagged(map[string]string{"result": "noop"})

	queryScope := scope.SubScope("typed_query")
	querySuccessScope := queryScope.Tagged(map[string]string{"result": "success"})
	queryFailScope := queryScope.Tagged(map[string]string{"result": "fail"})

	proxyScope := scope.SubScope("proxy")
	proxySuccessScope := proxyScope.Tagged(map[string]string{"result": "success"})
	proxyFailScope := proxyScope.Tagged(map[string]string{"result": "fail"})

	counterScope := scope.SubScope("counter")
	counterSuccessScope := counterScope.Tagged(map[string]string{"result": "success"})
	counterFailScope := counterScope.Tagged(map[string]string{"result": "fail"})

	return &OrmMetrics{
		EntityPersist:     entitySuccessScope.Counter("persist"),
		EntityPersistFail: entityFailScope.Counter("persist"),

		EntityFind:         entitySuccessScope.Counter("find"),
		EntityFindFail:     entityFailScope.Counter("find"),
		EntityFindNotFound: entityNotFoundScope.Counter("find"),

		EntityUpdate:     entitySuccessScope.Counter("update"),
		EntityUpdateFail: entityFailScope.Counter("update"),
		EntityUpdateNoop: entityNoopScope.Counter("update"),

		EntityRemove:     entitySuccessScope.Counter("remove"),
		EntityRemoveFail: entityFailScope.Counter("remove"),

		TypedQuery:     querySuccessScope.Counter("execute"),
		TypedQueryFail: queryFailScope.Counter("execute"),

		LazyLoad:     proxySuccessScope.Counter("lazy_load"),
		LazyLoadFail: proxyFailScope.Counter("lazy_load"),

		JoinFetch:     proxySuccessScope.Counter("join_fetch"),
		JoinFetchFail: proxyFailScope.Counter("join_fetch"),

		CounterIncr:     counterSuccessScope.Counter("incr"),
		CounterIncrFail: counterFailScope.Counter("incr"),
		CounterGet:      counterSuccessScope.Counter("get"),
		CounterGetFail:  counterFailScope.Counter("get"),

		DirtyProperties: entityScope.Histogram("dirty_properties",
			tally.MustMakeLinearValueBuckets(0, 1, 16)),
	}
}
