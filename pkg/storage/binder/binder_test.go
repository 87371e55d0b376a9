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

package binder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
	"github.com/mboudraa/Achilles/pkg/storage/objects/samples"
	"github.com/mboudraa/Achilles/pkg/storage/transcoder"
	"github.com/stretchr/testify/suite"
)

// Foo keeps a simple counter
type Foo struct {
	base.Object `cassandra:"name=foo"`
	ID          int64        `column:"name=id, id"`
	Count       base.Counter `column:"name=count"`
}

// CompleteBean shares its name with samples.CompleteBean
type CompleteBean struct {
	base.Object `cassandra:"name=other_complete_bean"`
	ID          int64        `column:"name=id, id"`
	Version     base.Counter `column:"name=version"`
}

const _binderPkg = "github.com/mboudraa/Achilles/pkg/storage/binder"

type fixedCounter int64

func (c fixedCounter) Get(context.Context) (int64, error)  { return int64(c), nil }
func (c fixedCounter) Incr(context.Context) error          { return nil }
func (c fixedCounter) IncrBy(context.Context, int64) error { return nil }
func (c fixedCounter) Decr(context.Context) error          { return nil }
func (c fixedCounter) DecrBy(context.Context, int64) error { return nil }

type statement string

func (s statement) Query() string {
	return string(s)
}

type BinderTestSuite struct {
	suite.Suite

	registry *metadata.Registry
	binder   *Binder
	ps       PreparedStatement
}

func (suite *BinderTestSuite) SetupTest() {
	suite.registry = metadata.NewRegistry()
	suite.binder = New(transcoder.New())
	suite.ps = statement("CQL")
}

func TestBinderTestSuite(t *testing.T) {
	suite.Run(t, new(BinderTestSuite))
}

// TestBindForInsert checks the id comes first, followed by every non id
// non counter property in declaration order
func (suite *BinderTestSuite) TestBindForInsert() {
	em := suite.registry.MustGet(&samples.CompleteBean{})
	created := time.Unix(1500000000, 0).UTC()
	bean := &samples.CompleteBean{
		ID:          42,
		Name:        "john",
		Age:         33,
		Status:      samples.Status("active"),
		Created:     created,
		Friends:     []string{"paul"},
		Followers:   map[string]struct{}{"george": {}},
		Preferences: map[int]string{1: "FR"},
		User:        &samples.UserBean{UserID: 7},
		Version:     fixedCounter(3),
	}

	bv, err := suite.binder.BindForInsert(suite.ps, em, bean)
	suite.NoError(err)
	suite.True(bv.Statement == suite.ps)
	suite.Equal([]interface{}{
		int64(42),
		"john",
		nil,
		int64(33),
		"active",
		nil,
		created,
		[]interface{}{"paul"},
		[]interface{}{"george"},
		map[interface{}]interface{}{int64(1): "FR"},
		"",
		int64(7),
		nil,
	}, bv.Values)
	suite.Len(bv.Values, 1+len(em.AllMetasExceptIDAndCounters()))
}

func (suite *BinderTestSuite) TestBindForInsertWithEmbeddedID() {
	em := suite.registry.MustGet(&samples.Tweet{})
	tweet := &samples.Tweet{
		ID: samples.TweetKey{
			Date:   time.Unix(1500000000, 0).UTC(),
			UserID: gocql.TimeUUID(),
		},
		Content: "hello",
	}

	bv, err := suite.binder.BindForInsert(suite.ps, em, tweet)
	suite.NoError(err)
	suite.Equal([]interface{}{tweet.ID.UserID, tweet.ID.Date, "hello", nil}, bv.Values)
}

// TestBindForUpdate checks dirty values come first in the given order and
// the primary key last
func (suite *BinderTestSuite) TestBindForUpdate() {
	em := suite.registry.MustGet(&samples.CompleteBean{})
	bean := &samples.CompleteBean{ID: 42, Name: "john", Age: 33}

	dirty := []*metadata.PropertyMeta{em.MustProperty("name"), em.MustProperty("age_in_years")}
	bv, err := suite.binder.BindForUpdate(suite.ps, em, bean, dirty)
	suite.NoError(err)
	suite.Equal([]interface{}{"john", int64(33), int64(42)}, bv.Values)

	dirty = []*metadata.PropertyMeta{em.MustProperty("age_in_years"), em.MustProperty("name")}
	bv, err = suite.binder.BindForUpdate(suite.ps, em, bean, dirty)
	suite.NoError(err)
	suite.Equal([]interface{}{int64(33), "john", int64(42)}, bv.Values)
}

func (suite *BinderTestSuite) TestBindForUpdateRejectsKeysAndCounters() {
	em := suite.registry.MustGet(&samples.CompleteBean{})
	bean := &samples.CompleteBean{ID: 42, Version: fixedCounter(1)}

	for _, name := range []string{"id", "version"} {
		_, err := suite.binder.BindForUpdate(suite.ps, em, bean,
			[]*metadata.PropertyMeta{em.MustProperty(name)})

		var encodingErr *storage.EncodingError
		suite.True(errors.As(err, &encodingErr), name)
		suite.Equal(name, encodingErr.Property)
	}

	// a null counter is bound as null like any other null value
	bean.Version = nil
	bv, err := suite.binder.BindForUpdate(suite.ps, em, bean,
		[]*metadata.PropertyMeta{em.MustProperty("version")})
	suite.NoError(err)
	suite.Equal([]interface{}{nil, int64(42)}, bv.Values)
}

func (suite *BinderTestSuite) TestBindStatementWithOnlyPrimaryKey() {
	em := suite.registry.MustGet(&samples.CompleteBean{})
	bv, err := suite.binder.BindStatementWithOnlyPrimaryKey(suite.ps, em, int64(42))
	suite.NoError(err)
	suite.Equal([]interface{}{int64(42)}, bv.Values)

	tweets := suite.registry.MustGet(&samples.Tweet{})
	key := samples.TweetKey{Date: time.Unix(1, 0).UTC(), UserID: gocql.TimeUUID()}
	bv, err = suite.binder.BindStatementWithOnlyPrimaryKey(suite.ps, tweets, key)
	suite.NoError(err)
	suite.Equal([]interface{}{key.UserID, key.Date}, bv.Values)

	_, err = suite.binder.BindStatementWithOnlyPrimaryKey(suite.ps, em, nil)
	var encodingErr *storage.EncodingError
	suite.True(errors.As(err, &encodingErr))
}

func (suite *BinderTestSuite) TestSimpleCounter() {
	em := suite.registry.MustGet(&Foo{})
	count := em.MustProperty("count")

	bv, err := suite.binder.BindForSimpleCounterSelect(suite.ps, em, count, int64(7))
	suite.NoError(err)
	suite.Equal([]interface{}{_binderPkg + ".Foo", "7", "count"}, bv.Values)

	bv, err = suite.binder.BindForSimpleCounterDelete(suite.ps, em, count, int64(7))
	suite.NoError(err)
	suite.Equal([]interface{}{_binderPkg + ".Foo", "7", "count"}, bv.Values)

	bv, err = suite.binder.BindForSimpleCounterIncrementDecrement(suite.ps, em, count, int64(7), -2)
	suite.NoError(err)
	suite.Equal([]interface{}{int64(-2), _binderPkg + ".Foo", "7", "count"}, bv.Values)

	_, err = suite.binder.BindForSimpleCounterSelect(suite.ps, em, count, nil)
	suite.Error(err)
}

func (suite *BinderTestSuite) TestSimpleCounterWithCompoundKey() {
	em := suite.registry.MustGet(&samples.ConstructedKeyBean{})
	pm := em.MustProperty("value")
	bv, err := suite.binder.BindForSimpleCounterSelect(suite.ps, em, pm,
		samples.KeyByConstructor{ID: 1, Name: "a"})
	suite.NoError(err)
	suite.Equal([]interface{}{
		"github.com/mboudraa/Achilles/pkg/storage/objects/samples.ConstructedKeyBean",
		`{"id":1,"name":"a"}`,
		"value",
	}, bv.Values)
}

// TestSimpleCounterKeysOfHomonyms checks same-named entities of different
// packages do not share counter rows
func (suite *BinderTestSuite) TestSimpleCounterKeysOfHomonyms() {
	local := suite.registry.MustGet(&CompleteBean{})
	sample := suite.registry.MustGet(&samples.CompleteBean{})
	suite.Equal(local.TypeName, sample.TypeName)

	a, err := suite.binder.BindForSimpleCounterSelect(suite.ps, local, local.MustProperty("version"), int64(1))
	suite.NoError(err)
	b, err := suite.binder.BindForSimpleCounterSelect(suite.ps, sample, sample.MustProperty("version"), int64(1))
	suite.NoError(err)
	suite.NotEqual(a.Values[0], b.Values[0])
	suite.Equal(a.Values[1:], b.Values[1:])
}

func (suite *BinderTestSuite) TestClusteredCounter() {
	em := suite.registry.MustGet(&samples.ClusteredCounterBean{})
	key := samples.ClusteredKey{ID: 1, Name: "a"}

	bv, err := suite.binder.BindForClusteredCounterIncrementDecrement(suite.ps, em, key, 5)
	suite.NoError(err)
	suite.Equal([]interface{}{int64(5), int64(1), "a"}, bv.Values)

	bv, err = suite.binder.BindForClusteredCounterSelect(suite.ps, em, key)
	suite.NoError(err)
	suite.Equal([]interface{}{int64(1), "a"}, bv.Values)

	bv, err = suite.binder.BindForClusteredCounterDelete(suite.ps, em, &key)
	suite.NoError(err)
	suite.Equal([]interface{}{int64(1), "a"}, bv.Values)
}

func (suite *BinderTestSuite) TestBoundValuesString() {
	bv := &BoundValues{
		Statement: statement("SELECT * FROM foo WHERE id=?"),
		Values:    []interface{}{int64(1), nil, "a"},
	}
	suite.Equal("SELECT * FROM foo WHERE id=? [1, null, a]", bv.String())
}
