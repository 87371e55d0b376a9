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

// Package cassandra runs the statements bound by the orm against a
// Cassandra cluster through gocql.
package cassandra

import (
	"context"
	"time"

	"github.com/mboudraa/Achilles/pkg/common/logging"
	"github.com/mboudraa/Achilles/pkg/storage/binder"
	"github.com/mboudraa/Achilles/pkg/storage/consistency"
	"github.com/mboudraa/Achilles/pkg/storage/orm"
	"github.com/mboudraa/Achilles/pkg/storage/statement"

	"github.com/gocql/gocql"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"go.uber.org/yarpc/yarpcerrors"
)

const unknown = "unknown"

type cassandraConnector struct {
	// session runs the statements
	session session
	// scope is the storage scope for metrics
	scope tally.Scope
	// scope is the storage scope for success metrics
	executeSuccessScope tally.Scope
	// scope is the storage scope for failure metrics
	executeFailScope tally.Scope

	// Conf is the Cassandra connector config for this cluster
	Conf *Config
}

// NewCassandraConnector initializes a Cassandra Connector
func NewCassandraConnector(
	config *Config,
	scope tally.Scope,
) (orm.Connector, error) {
	s, err := CreateStoreSession(config.CassandraConn, config.StoreName)
	if err != nil {
		return nil, err
	}
	return newConnector(&gocqlSession{s: s}, config, scope), nil
}

func newConnector(s session, config *Config, scope tally.Scope) *cassandraConnector {
	// create a storeScope for the keyspace StoreName
	storeScope := scope.SubScope("cql").Tagged(
		map[string]string{"store": config.StoreName})

	return &cassandraConnector{
		session: s,
		scope:   storeScope,
		executeSuccessScope: storeScope.Tagged(
			map[string]string{"result": "success"}),
		executeFailScope: storeScope.Tagged(
			map[string]string{"result": "fail"}),
		Conf: config,
	}
}

// ensure that implementation (cassandraConnector) satisfies the interface
var _ orm.Connector = (*cassandraConnector)(nil)

// Close closes the underlying session
func (c *cassandraConnector) Close() {
	c.session.close()
}

// KeyspaceMetadata returns the schema of the store keyspace
func (c *cassandraConnector) KeyspaceMetadata() (*gocql.KeyspaceMetadata, error) {
	ks, err := c.session.keyspaceMetadata(c.Conf.StoreName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata of keyspace %s", c.Conf.StoreName)
	}
	return ks, nil
}

// Execute runs a statement returning no rows
func (c *cassandraConnector) Execute(
	ctx context.Context,
	bv *binder.BoundValues,
	level consistency.Level,
) error {
	table, operation := describe(bv)
	defer trace(ctx, operation, bv)()
	logStatement(bv, level)

	latency, err := c.session.exec(ctx, bv.Statement.Query(), bv.Values, gocqlLevel(level))
	if err != nil {
		sendCounters(c.executeFailScope, table, operation, err)
		return toYARPCError(err, bv)
	}

	sendLatency(c.scope, table, operation, latency)
	sendCounters(c.executeSuccessScope, table, operation, nil)
	return nil
}

// Query runs a select and returns all of its rows
func (c *cassandraConnector) Query(
	ctx context.Context,
	bv *binder.BoundValues,
	level consistency.Level,
) ([]map[string]interface{}, error) {
	table, operation := describe(bv)
	defer trace(ctx, operation, bv)()
	logStatement(bv, level)

	rows, latency, err := c.session.sliceMap(ctx, bv.Statement.Query(), bv.Values, gocqlLevel(level))
	if err != nil {
		sendCounters(c.executeFailScope, table, operation, err)
		return nil, toYARPCError(err, bv)
	}

	sendLatency(c.scope, table, operation, latency)
	sendCounters(c.executeSuccessScope, table, operation, nil)
	return rows, nil
}

// describe returns the table and operation tags of a bound statement
func describe(bv *binder.BoundValues) (string, string) {
	if p, ok := bv.Statement.(*statement.Prepared); ok {
		return p.Table, p.Kind.String()
	}
	return unknown, unknown
}

func gocqlLevel(level consistency.Level) *gocql.Consistency {
	if !level.IsSet() {
		return nil
	}
	cl := level.Gocql()
	return &cl
}

func logStatement(bv *binder.BoundValues, level consistency.Level) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	log.WithFields(log.Fields{
		logging.DBStmtLogField:      bv.Statement.Query(),
		logging.DBArgsLogField:      bv.Values,
		logging.ConsistencyLogField: level.String(),
	}).Debug("executing statement")
}

// trace starts a child span of the span of ctx, if any. The returned func
// finishes it.
func trace(ctx context.Context, operation string, bv *binder.BoundValues) func() {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return func() {}
	}
	child := span.Tracer().StartSpan("cql."+operation, opentracing.ChildOf(span.Context()))
	child.SetTag("db.type", "cassandra")
	child.SetTag("db.statement", bv.Statement.Query())
	return child.Finish
}

// toYARPCError converts driver errors the callers are expected to handle
func toYARPCError(err error, bv *binder.BoundValues) error {
	switch err.(type) {
	case *gocql.RequestErrAlreadyExists:
		return yarpcerrors.AlreadyExistsErrorf("%s: %v", bv.Statement.Query(), err)
	case *gocql.RequestErrReadTimeout, *gocql.RequestErrWriteTimeout:
		return yarpcerrors.DeadlineExceededErrorf("%s: %v", bv.Statement.Query(), err)
	case *gocql.RequestErrUnavailable:
		return yarpcerrors.UnavailableErrorf("%s: %v", bv.Statement.Query(), err)
	}
	if err == gocql.ErrNotFound {
		return yarpcerrors.NotFoundErrorf("%s: %v", bv.Statement.Query(), err)
	}
	return errors.Wrapf(err, "failed to execute %s", bv.Statement.Query())
}

// getGocqlErrorTag gets a error tag for metrics based on gocql error
// We cannot just use err.Error() as a tag because it contains invalid
// characters like = : etc. which will be rejected by M3
func getGocqlErrorTag(err error) string {
	if yarpcerrors.IsAlreadyExists(err) {
		return "already_exists"
	}
	if yarpcerrors.IsNotFound(err) {
		return "not_found"
	}
	switch err.(type) {
	case *gocql.RequestErrReadFailure:
		return "read_failure"
	case *gocql.RequestErrWriteFailure:
		return "write_failure"
	case *gocql.RequestErrAlreadyExists:
		return "already_exists"
	case *gocql.RequestErrReadTimeout:
		return "read_timeout"
	case *gocql.RequestErrWriteTimeout:
		return "write_timeout"
	case *gocql.RequestErrUnavailable:
		return "unavailable"
	case *gocql.RequestErrFunctionFailure:
		return "function_failure"
	case *gocql.RequestErrUnprepared:
		return "unprepared"
	default:
		return unknown
	}
}

// helper function to record call latency metric
func sendLatency(
	scope tally.Scope,
	table, operation string,
	d time.Duration,
) {
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
	})
	s.Timer("execute_latency").Record(d)
}

// helper function to record cql query success/failure metrics
func sendCounters(
	scope tally.Scope,
	table, operation string,
	err error,
) {
	errMsg := "none"
	if err != nil {
		errMsg = getGocqlErrorTag(err)
	}
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
		"error":     errMsg,
	})
	s.Counter("execute").Inc(1)
}
