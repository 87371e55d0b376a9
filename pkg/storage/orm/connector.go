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

package orm

import (
	"context"

	"github.com/gocql/gocql"
	"github.com/mboudraa/Achilles/pkg/storage/binder"
	"github.com/mboudraa/Achilles/pkg/storage/consistency"
)

// Connector is the interface that must be implemented for a backend service
type Connector interface {
	// Execute runs a statement returning no rows at the given consistency
	Execute(
		ctx context.Context,
		bv *binder.BoundValues,
		level consistency.Level,
	) error

	// Query runs a select at the given consistency and returns its rows,
	// keyed by column name
	Query(
		ctx context.Context,
		bv *binder.BoundValues,
		level consistency.Level,
	) ([]map[string]interface{}, error)

	// KeyspaceMetadata returns the live schema of the keyspace the
	// connector is bound to
	KeyspaceMetadata() (*gocql.KeyspaceMetadata, error)

	// Close releases the connections to the backend
	Close()
}
