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

package cassandra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mboudraa/Achilles/pkg/storage/binder"
	"github.com/mboudraa/Achilles/pkg/storage/consistency"
	"github.com/mboudraa/Achilles/pkg/storage/statement"

	"github.com/gocql/gocql"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally/v4"
	"go.uber.org/yarpc/yarpcerrors"
)

// fakeSession records the last statement it ran
type fakeSession struct {
	stmt   string
	values []interface{}
	cl     *gocql.Consistency
	rows   []map[string]interface{}
	ks     *gocql.KeyspaceMetadata
	err    error
	closed bool
}

func (f *fakeSession) exec(
	_ context.Context, stmt string, values []interface{}, cl *gocql.Consistency,
) (time.Duration, error) {
	f.stmt, f.values, f.cl = stmt, values, cl
	return time.Millisecond, f.err
}

func (f *fakeSession) sliceMap(
	_ context.Context, stmt string, values []interface{}, cl *gocql.Consistency,
) ([]map[string]interface{}, time.Duration, error) {
	f.stmt, f.values, f.cl = stmt, values, cl
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.rows, time.Millisecond, nil
}

func (f *fakeSession) keyspaceMetadata(keyspace string) (*gocql.KeyspaceMetadata, error) {
	if f.ks == nil {
		return nil, gocql.ErrKeyspaceDoesNotExist
	}
	return f.ks, nil
}

func (f *fakeSession) close() {
	f.closed = true
}

type CassandraConnSuite struct {
	suite.Suite

	session   *fakeSession
	scope     tally.TestScope
	connector *cassandraConnector
	stmt      *statement.Prepared
}

func (suite *CassandraConnSuite) SetupTest() {
	suite.session = &fakeSession{}
	suite.scope = tally.NewTestScope("", map[string]string{})
	suite.connector = newConnector(suite.session, &Config{StoreName: "achilles"}, suite.scope)

	stmt, err := statement.NewGenerator().SimpleCounterSelect()
	suite.NoError(err)
	suite.stmt = stmt
}

func TestCassandraConnSuite(t *testing.T) {
	suite.Run(t, new(CassandraConnSuite))
}

func (suite *CassandraConnSuite) bound(values ...interface{}) *binder.BoundValues {
	return &binder.BoundValues{Statement: suite.stmt, Values: values}
}

// counter returns the value of the execute counter with the given tags
func (suite *CassandraConnSuite) counter(result, errTag string) int64 {
	for _, c := range suite.scope.Snapshot().Counters() {
		tags := c.Tags()
		if c.Name() == "cql.execute" && tags["result"] == result && tags["error"] == errTag &&
			tags["table"] == statement.CounterTable && tags["store"] == "achilles" {
			return c.Value()
		}
	}
	return 0
}

func (suite *CassandraConnSuite) TestExecute() {
	err := suite.connector.Execute(context.Background(), suite.bound("a", "b", "c"), consistency.Quorum)
	suite.NoError(err)

	suite.Equal(suite.stmt.Query(), suite.session.stmt)
	suite.Equal([]interface{}{"a", "b", "c"}, suite.session.values)
	suite.Require().NotNil(suite.session.cl)
	suite.Equal(gocql.Quorum, *suite.session.cl)
	suite.Equal(int64(1), suite.counter("success", "none"))

	timers := suite.scope.Snapshot().Timers()
	suite.NotEmpty(timers)
	for _, t := range timers {
		suite.Equal("cql.execute_latency", t.Name())
		suite.Equal("simple_counter_select", t.Tags()["operation"])
	}
}

// TestExecuteUnsetLevel checks the session default applies without level
func (suite *CassandraConnSuite) TestExecuteUnsetLevel() {
	suite.NoError(suite.connector.Execute(context.Background(), suite.bound(), consistency.Unset))
	suite.Nil(suite.session.cl)
}

func (suite *CassandraConnSuite) TestExecuteErrors() {
	suite.session.err = &gocql.RequestErrUnavailable{}
	err := suite.connector.Execute(context.Background(), suite.bound(), consistency.One)
	suite.True(yarpcerrors.IsUnavailable(err))
	suite.Equal(int64(1), suite.counter("fail", "unavailable"))

	suite.session.err = &gocql.RequestErrWriteTimeout{}
	err = suite.connector.Execute(context.Background(), suite.bound(), consistency.One)
	suite.True(yarpcerrors.IsDeadlineExceeded(err))
	suite.Equal(int64(1), suite.counter("fail", "write_timeout"))

	suite.session.err = errors.New("boom")
	err = suite.connector.Execute(context.Background(), suite.bound(), consistency.One)
	suite.Error(err)
	suite.Contains(err.Error(), "boom")
	suite.Equal(int64(1), suite.counter("fail", "unknown"))
}

func (suite *CassandraConnSuite) TestQuery() {
	suite.session.rows = []map[string]interface{}{{"counter_value": int64(3)}}

	rows, err := suite.connector.Query(context.Background(), suite.bound("a"), consistency.LocalOne)
	suite.NoError(err)
	suite.Equal(suite.session.rows, rows)
	suite.Equal(gocql.LocalOne, *suite.session.cl)

	suite.session.err = gocql.ErrNotFound
	_, err = suite.connector.Query(context.Background(), suite.bound("a"), consistency.LocalOne)
	suite.True(yarpcerrors.IsNotFound(err))
	suite.Equal(int64(1), suite.counter("fail", "unknown"))
}

// TestTrace checks statements run within a span get a child span
func (suite *CassandraConnSuite) TestTrace() {
	tracer := mocktracer.New()
	parent := tracer.StartSpan("parent")
	ctx := opentracing.ContextWithSpan(context.Background(), parent)

	suite.NoError(suite.connector.Execute(ctx, suite.bound(), consistency.One))
	parent.Finish()

	spans := tracer.FinishedSpans()
	suite.Len(spans, 2)
	suite.Equal("cql.simple_counter_select", spans[0].OperationName)
	suite.Equal(suite.stmt.Query(), spans[0].Tag("db.statement"))
	suite.Equal(parent.(*mocktracer.MockSpan).SpanContext.SpanID, spans[0].ParentID)
}

// TestUntypedStatement checks statements not generated by the orm are
// tagged as unknown
func (suite *CassandraConnSuite) TestUntypedStatement() {
	bv := &binder.BoundValues{Statement: rawStatement("SELECT now() FROM system.local")}
	suite.NoError(suite.connector.Execute(context.Background(), bv, consistency.One))
	suite.Equal("SELECT now() FROM system.local", suite.session.stmt)

	found := false
	for _, c := range suite.scope.Snapshot().Counters() {
		if c.Tags()["table"] == unknown && c.Tags()["operation"] == unknown {
			found = true
		}
	}
	suite.True(found)
}

func (suite *CassandraConnSuite) TestKeyspaceMetadata() {
	_, err := suite.connector.KeyspaceMetadata()
	suite.Error(err)

	suite.session.ks = &gocql.KeyspaceMetadata{Name: "achilles"}
	ks, err := suite.connector.KeyspaceMetadata()
	suite.NoError(err)
	suite.Equal("achilles", ks.Name)

	suite.connector.Close()
	suite.True(suite.session.closed)
}

func (suite *CassandraConnSuite) TestNewCluster() {
	cluster := newCluster(&CassandraConn{
		ContactPoints: []string{"127.0.0.1"},
		Username:      "user",
		Password:      "secret",
		DataCenter:    "dc1",
		HostPolicy:    "TokenAwareHostPolicy",
	})
	suite.Equal(gocql.LocalQuorum, cluster.Consistency)
	suite.Equal(defaultTimeout, cluster.Timeout)
	suite.Equal(defaultConnectionsPerHost, cluster.NumConns)
	suite.Equal(defaultProtoVersion, cluster.ProtoVersion)
	suite.Equal(defaultPort, cluster.Port)
	suite.Equal(defaultPageSize, cluster.PageSize)
	suite.Equal(&gocql.SimpleRetryPolicy{NumRetries: defaultRetryCount}, cluster.RetryPolicy)
	suite.NotNil(cluster.HostFilter)
	suite.Equal(gocql.PasswordAuthenticator{Username: "user", Password: "secret"}, cluster.Authenticator)

	cluster = newCluster(&CassandraConn{
		ContactPoints: []string{"127.0.0.1"},
		Consistency:   "ONE",
		Port:          9043,
		RetryCount:    7,
	})
	suite.Equal(gocql.One, cluster.Consistency)
	suite.Equal(9043, cluster.Port)
	suite.Equal(&gocql.SimpleRetryPolicy{NumRetries: 7}, cluster.RetryPolicy)
	suite.Nil(cluster.Authenticator)
}

func (suite *CassandraConnSuite) TestConfigPolicy() {
	policy, err := (&Config{}).Policy()
	suite.NoError(err)
	suite.Equal(consistency.LocalQuorum, policy.DefaultRead())
	suite.Equal(consistency.LocalQuorum, policy.DefaultWrite())

	policy, err = (&Config{ReadConsistency: consistency.One, WriteConsistency: consistency.All}).Policy()
	suite.NoError(err)
	suite.Equal(consistency.One, policy.DefaultRead())
	suite.Equal(consistency.All, policy.DefaultWrite())
}

type rawStatement string

func (r rawStatement) Query() string {
	return string(r)
}
