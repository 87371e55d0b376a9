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

package proxy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
	"github.com/mboudraa/Achilles/pkg/storage/objects/samples"
	"github.com/mboudraa/Achilles/pkg/storage/proxy"
	proxymocks "github.com/mboudraa/Achilles/pkg/storage/proxy/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type ProxyTestSuite struct {
	suite.Suite

	ctrl *gomock.Controller
	ctx  context.Context
	pctx *proxymocks.MockContext

	meta *metadata.EntityMeta
	bean *samples.CompleteBean
	p    *proxy.Proxy
}

func (suite *ProxyTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.ctx = context.Background()
	suite.pctx = proxymocks.NewMockContext(suite.ctrl)

	suite.meta = metadata.NewRegistry().MustGet(&samples.CompleteBean{})
	suite.bean = &samples.CompleteBean{
		ID:          42,
		Name:        "john",
		Followers:   map[string]struct{}{"paul": {}},
		Preferences: map[int]string{1: "FR"},
	}
	suite.p = proxy.New(suite.pctx, suite.meta, suite.bean)
}

func (suite *ProxyTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func TestProxyTestSuite(t *testing.T) {
	suite.Run(t, new(ProxyTestSuite))
}

func (suite *ProxyTestSuite) pm(name string) *metadata.PropertyMeta {
	return suite.meta.MustProperty(name)
}

// TestSetCollapsesToOneDirtyEntry checks repeated sets of a property mark
// it dirty once
func (suite *ProxyTestSuite) TestSetCollapsesToOneDirtyEntry() {
	suite.Equal(proxy.StateClean, suite.p.State())

	suite.NoError(suite.p.Set(suite.pm("name"), "paul"))
	suite.NoError(suite.p.Set(suite.pm("name"), "george"))

	suite.Equal(proxy.StateDirty, suite.p.State())
	suite.Equal(1, suite.p.DirtyState().Len())
	suite.Equal("george", suite.bean.Name)
}

func (suite *ProxyTestSuite) TestAcknowledge() {
	suite.NoError(suite.p.Set(suite.pm("age_in_years"), int64(33)))
	suite.NoError(suite.p.Set(suite.pm("name"), "paul"))

	dirty := suite.p.DirtyProperties()
	suite.Len(dirty, 2)
	suite.Equal("name", dirty[0].Name)
	suite.Equal("age_in_years", dirty[1].Name)

	suite.p.Acknowledge()
	suite.Equal(proxy.StateClean, suite.p.State())
	suite.Empty(suite.p.DirtyProperties())
	suite.Equal("CLEAN", suite.p.State().String())
}

func (suite *ProxyTestSuite) TestSetRejected() {
	var validationErr *storage.ValidationError

	err := suite.p.Set(suite.pm("id"), int64(1))
	suite.True(errors.As(err, &validationErr))

	err = suite.p.Set(suite.pm("version"), int64(1))
	suite.True(errors.As(err, &validationErr))

	other := metadata.NewRegistry().MustGet(&samples.UserBean{})
	err = suite.p.Set(other.MustProperty("firstname"), "john")
	suite.True(errors.As(err, &validationErr))

	suite.Error(suite.p.Set(suite.pm("name"), 12))
	suite.Equal(proxy.StateClean, suite.p.State())
	suite.Equal(int64(42), suite.bean.ID)
}

func (suite *ProxyTestSuite) TestGetScalar() {
	v, err := suite.p.Get(suite.ctx, suite.pm("name"))
	suite.NoError(err)
	suite.Equal("john", v)
	suite.Equal(proxy.StateClean, suite.p.State())
	suite.True(suite.p.Entity() == suite.bean)
}

// TestLazyProperty checks a lazy property is loaded once, on first read
func (suite *ProxyTestSuite) TestLazyProperty() {
	welcome := suite.pm("welcome_tweet")
	suite.False(suite.p.IsLoaded(welcome))

	suite.pctx.EXPECT().LoadProperty(suite.ctx, suite.p, welcome).
		Do(func(_ context.Context, p *proxy.Proxy, pm *metadata.PropertyMeta) {
			suite.NoError(pm.SetValue(p.Entity(), "hello"))
		}).Return(nil).Times(1)

	for i := 0; i < 2; i++ {
		v, err := suite.p.Get(suite.ctx, welcome)
		suite.NoError(err)
		suite.Equal("hello", v)
	}
	suite.True(suite.p.IsLoaded(welcome))
	suite.Equal(proxy.StateClean, suite.p.State())
}

// TestPartiallyLoaded checks an eager property left out of the loaded set
// is loaded on first read
func (suite *ProxyTestSuite) TestPartiallyLoaded() {
	name, welcome := suite.pm("name"), suite.pm("welcome_tweet")
	p := proxy.NewLoaded(suite.pctx, suite.meta, suite.bean,
		[]*metadata.PropertyMeta{suite.meta.IDMeta, welcome})
	suite.True(p.IsLoaded(welcome))
	suite.False(p.IsLoaded(name))

	suite.pctx.EXPECT().LoadProperty(suite.ctx, p, name).
		Do(func(_ context.Context, p *proxy.Proxy, pm *metadata.PropertyMeta) {
			suite.NoError(pm.SetValue(p.Entity(), "paul"))
		}).Return(nil).Times(1)

	v, err := p.Get(suite.ctx, name)
	suite.NoError(err)
	suite.Equal("paul", v)
	suite.True(p.IsLoaded(name))
	suite.Equal(proxy.StateClean, p.State())
}

func (suite *ProxyTestSuite) TestLazyPropertyLoadError() {
	welcome := suite.pm("welcome_tweet")
	suite.pctx.EXPECT().LoadProperty(suite.ctx, suite.p, welcome).
		Return(errors.New("unavailable"))

	_, err := suite.p.Get(suite.ctx, welcome)
	suite.Error(err)
	suite.False(suite.p.IsLoaded(welcome))
}

// TestJoinIsFetchedOnce checks join navigation is memoized per instance
func (suite *ProxyTestSuite) TestJoinIsFetchedOnce() {
	user := suite.pm("user")
	suite.bean.User = &samples.UserBean{UserID: 7}
	suite.p.MarkLoaded(user)

	userMeta := user.JoinMeta
	target := proxy.New(suite.pctx, userMeta, &samples.UserBean{UserID: 7, Firstname: "ringo"})
	suite.pctx.EXPECT().FetchJoin(suite.ctx, user, suite.bean.User).
		Return(target, nil).Times(1)

	for i := 0; i < 3; i++ {
		v, err := suite.p.Get(suite.ctx, user)
		suite.NoError(err)
		suite.True(v.(*proxy.Proxy) == target)
	}
}

// TestJoinReassignment checks setting a join drops the memoized target
func (suite *ProxyTestSuite) TestJoinReassignment() {
	user := suite.pm("user")
	first := proxy.New(suite.pctx, user.JoinMeta, &samples.UserBean{UserID: 1})
	second := proxy.New(suite.pctx, user.JoinMeta, &samples.UserBean{UserID: 2})

	suite.NoError(suite.p.Set(user, first))
	suite.True(suite.bean.User == first.Entity())

	gomock.InOrder(
		suite.pctx.EXPECT().FetchJoin(suite.ctx, user, first.Entity()).Return(first, nil),
		suite.pctx.EXPECT().FetchJoin(suite.ctx, user, second.Entity()).Return(second, nil),
	)

	v, err := suite.p.Get(suite.ctx, user)
	suite.NoError(err)
	suite.True(v.(*proxy.Proxy) == first)

	suite.NoError(suite.p.Set(user, second.Entity()))
	v, err = suite.p.Get(suite.ctx, user)
	suite.NoError(err)
	suite.True(v.(*proxy.Proxy) == second)
	suite.True(suite.p.DirtyState().IsDirty(user))
}

// TestMissingJoinTargetIsFetchedOnce checks a dangling join is memoized
// like a found one
func (suite *ProxyTestSuite) TestMissingJoinTargetIsFetchedOnce() {
	user := suite.pm("user")
	suite.bean.User = &samples.UserBean{UserID: 404}
	suite.p.MarkLoaded(user)

	suite.pctx.EXPECT().FetchJoin(suite.ctx, user, suite.bean.User).
		Return(nil, nil).Times(1)

	for i := 0; i < 3; i++ {
		v, err := suite.p.Get(suite.ctx, user)
		suite.NoError(err)
		suite.Nil(v)
	}
}

func (suite *ProxyTestSuite) TestNilJoin() {
	user := suite.pm("user")
	suite.p.MarkLoaded(user)

	v, err := suite.p.Get(suite.ctx, user)
	suite.NoError(err)
	suite.Nil(v)
}

func (suite *ProxyTestSuite) TestJoinList() {
	favorites := suite.pm("favorites")
	suite.bean.Favorites = []*samples.UserBean{{UserID: 1}, {UserID: 2}}
	suite.p.MarkLoaded(favorites)

	target := proxy.New(suite.pctx, favorites.JoinMeta, &samples.UserBean{UserID: 2})
	suite.pctx.EXPECT().FetchJoin(suite.ctx, favorites, suite.bean.Favorites[1]).
		Return(target, nil).Times(1)

	v, err := suite.p.Get(suite.ctx, favorites)
	suite.NoError(err)
	list := v.(*proxy.ListWrapper)
	for i := 0; i < 2; i++ {
		got, err := list.GetJoin(suite.ctx, 1)
		suite.NoError(err)
		suite.True(got == target)
	}

	suite.NoError(list.Add(proxy.New(suite.pctx, favorites.JoinMeta, &samples.UserBean{UserID: 3})))
	suite.Len(suite.bean.Favorites, 3)
	suite.Equal(int64(3), suite.bean.Favorites[2].UserID)
	suite.True(suite.p.DirtyState().IsDirty(favorites))
}

func (suite *ProxyTestSuite) TestCounter() {
	version := suite.pm("version")

	v, err := suite.p.Get(suite.ctx, version)
	suite.NoError(err)
	counter, ok := v.(base.Counter)
	suite.True(ok)

	gomock.InOrder(
		suite.pctx.EXPECT().IncrementCounter(suite.ctx, suite.meta, suite.bean, version, int64(1)),
		suite.pctx.EXPECT().IncrementCounter(suite.ctx, suite.meta, suite.bean, version, int64(5)),
		suite.pctx.EXPECT().IncrementCounter(suite.ctx, suite.meta, suite.bean, version, int64(-1)),
		suite.pctx.EXPECT().IncrementCounter(suite.ctx, suite.meta, suite.bean, version, int64(-3)),
		suite.pctx.EXPECT().GetCounter(suite.ctx, suite.meta, suite.bean, version).Return(int64(2), nil),
	)

	suite.NoError(counter.Incr(suite.ctx))
	suite.NoError(counter.IncrBy(suite.ctx, 5))
	suite.NoError(counter.Decr(suite.ctx))
	suite.NoError(counter.DecrBy(suite.ctx, 3))
	n, err := counter.Get(suite.ctx)
	suite.NoError(err)
	suite.Equal(int64(2), n)

	suite.Equal(proxy.StateClean, suite.p.State())
}

func (suite *ProxyTestSuite) TestGetUnknownProperty() {
	other := metadata.NewRegistry().MustGet(&samples.UserBean{})
	_, err := suite.p.Get(suite.ctx, other.MustProperty("firstname"))
	suite.Error(err)

	_, err = suite.p.Get(suite.ctx, nil)
	suite.Error(err)
}
