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
	"errors"
	"sort"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/objects/samples"
	"github.com/mboudraa/Achilles/pkg/storage/proxy"
)

func (suite *ProxyTestSuite) list() *proxy.ListWrapper {
	friends := suite.pm("friends")
	suite.p.MarkLoaded(friends)
	v, err := suite.p.Get(suite.ctx, friends)
	suite.NoError(err)
	return v.(*proxy.ListWrapper)
}

func (suite *ProxyTestSuite) set() *proxy.SetWrapper {
	v, err := suite.p.Get(suite.ctx, suite.pm("followers"))
	suite.NoError(err)
	return v.(*proxy.SetWrapper)
}

func (suite *ProxyTestSuite) mapping() *proxy.MapWrapper {
	v, err := suite.p.Get(suite.ctx, suite.pm("preferences"))
	suite.NoError(err)
	return v.(*proxy.MapWrapper)
}

// TestListReadsDoNotMarkDirty checks reads are forwarded without marking
// the property dirty
func (suite *ProxyTestSuite) TestListReadsDoNotMarkDirty() {
	suite.bean.Friends = []string{"paul", "george"}
	list := suite.list()

	suite.Equal(2, list.Len())
	suite.False(list.IsEmpty())
	suite.Equal("george", list.Get(1))
	suite.Equal(1, list.IndexOf("george"))
	suite.True(list.Contains("paul"))
	suite.False(list.Contains("ringo"))
	suite.Equal([]interface{}{"paul", "george"}, list.ToSlice())

	it := list.Iterator()
	for it.Next() {
		_ = it.Value()
	}
	suite.Equal(proxy.StateClean, suite.p.State())
}

// TestListMutations checks every mutation reaches the entity and marks the
// property dirty
func (suite *ProxyTestSuite) TestListMutations() {
	list := suite.list()
	friends := suite.pm("friends")

	suite.NoError(list.Add("paul", "john"))
	suite.Equal([]string{"paul", "john"}, suite.bean.Friends)
	suite.True(suite.p.DirtyState().IsDirty(friends))
	suite.p.Acknowledge()

	suite.NoError(list.Insert(1, "george"))
	suite.Equal([]string{"paul", "george", "john"}, suite.bean.Friends)
	suite.Error(list.Insert(9, "ringo"))

	old, err := list.Set(0, "ringo")
	suite.NoError(err)
	suite.Equal("paul", old)
	_, err = list.Set(5, "ringo")
	suite.Error(err)

	removed, err := list.RemoveAt(2)
	suite.NoError(err)
	suite.Equal("john", removed)
	_, err = list.RemoveAt(2)
	suite.Error(err)

	suite.True(list.Remove("george"))
	suite.False(list.Remove("george"))
	suite.Equal([]string{"ringo"}, suite.bean.Friends)

	suite.NoError(list.Add("a", "b", "c"))
	suite.True(list.RemoveAll("a", "c"))
	suite.False(list.RemoveAll("z"))
	suite.True(list.RetainAll("b"))
	suite.Equal([]string{"b"}, suite.bean.Friends)

	suite.Error(list.Add(12))

	list.Clear()
	suite.NotNil(suite.bean.Friends)
	suite.Empty(suite.bean.Friends)
	suite.Equal(1, suite.p.DirtyState().Len())
}

func (suite *ProxyTestSuite) TestListIterator() {
	suite.bean.Friends = []string{"a", "b", "c", "d"}
	list := suite.list()

	it := list.Iterator()
	suite.Error(it.Remove())
	for it.Next() {
		switch it.Value() {
		case "b":
			suite.NoError(it.Remove())
			suite.Error(it.Remove())
		case "c":
			suite.NoError(it.Set("C"))
		}
	}
	suite.Equal([]string{"a", "C", "d"}, suite.bean.Friends)
	suite.Equal(proxy.StateDirty, suite.p.State())
}

func (suite *ProxyTestSuite) TestSetWrapper() {
	set := suite.set()
	followers := suite.pm("followers")

	suite.Equal(1, set.Len())
	suite.True(set.Contains("paul"))
	suite.False(set.Contains(12))
	suite.Equal([]interface{}{"paul"}, set.ToSlice())
	suite.False(suite.p.DirtyState().IsDirty(followers))

	added, err := set.Add("john")
	suite.NoError(err)
	suite.True(added)
	added, err = set.Add("john")
	suite.NoError(err)
	suite.False(added)
	suite.True(suite.p.DirtyState().IsDirty(followers))
	suite.Contains(suite.bean.Followers, "john")

	changed, err := set.AddAll("george", "ringo")
	suite.NoError(err)
	suite.True(changed)
	suite.Equal(4, set.Len())

	suite.True(set.Remove("paul"))
	suite.False(set.Remove("paul"))
	suite.True(set.RemoveAll("george", "nobody"))
	suite.True(set.RetainAll("john"))
	suite.Equal(map[string]struct{}{"john": {}}, suite.bean.Followers)

	it := set.Iterator()
	for it.Next() {
		suite.NoError(it.Remove())
	}
	suite.Empty(suite.bean.Followers)

	_, err = set.Add(3)
	suite.Error(err)

	set.Clear()
	suite.NotNil(suite.bean.Followers)
}

func (suite *ProxyTestSuite) TestSetWrapperOnNilSet() {
	suite.bean.Followers = nil
	set := suite.set()

	suite.True(set.IsEmpty())
	suite.False(set.Remove("paul"))
	suite.Equal(proxy.StateClean, suite.p.State())

	_, err := set.Add("paul")
	suite.NoError(err)
	suite.Equal(map[string]struct{}{"paul": {}}, suite.bean.Followers)
}

func (suite *ProxyTestSuite) TestMapWrapper() {
	m := suite.mapping()
	prefs := suite.pm("preferences")

	v, ok := m.Get(1)
	suite.True(ok)
	suite.Equal("FR", v)
	_, ok = m.Get(2)
	suite.False(ok)
	suite.True(m.ContainsKey(1))
	suite.True(m.ContainsValue("FR"))
	suite.False(m.ContainsValue("US"))
	suite.False(suite.p.DirtyState().IsDirty(prefs))

	old, err := m.Put(1, "US")
	suite.NoError(err)
	suite.Equal("FR", old)
	suite.True(suite.p.DirtyState().IsDirty(prefs))

	suite.NoError(m.PutAll(map[int]string{2: "Paris", 3: "75001"}))
	suite.Equal(3, m.Len())
	suite.Error(m.PutAll([]string{"x"}))
	_, err = m.Put("one", "x")
	suite.Error(err)

	removed, ok := m.Remove(3)
	suite.True(ok)
	suite.Equal("75001", removed)
	_, ok = m.Remove(3)
	suite.False(ok)

	suite.Equal(map[int]string{1: "US", 2: "Paris"}, suite.bean.Preferences)

	m.Clear()
	suite.True(m.IsEmpty())
	suite.NotNil(suite.bean.Preferences)
}

// TestMapViews checks key, value and entry views write through to the map
func (suite *ProxyTestSuite) TestMapViews() {
	suite.bean.Preferences = map[int]string{1: "a", 2: "b", 3: "c", 4: "d"}
	m := suite.mapping()

	keys := m.KeySet()
	suite.Equal(4, keys.Len())
	suite.True(keys.Contains(2))
	ks := keys.ToSlice()
	sort.Slice(ks, func(i, j int) bool { return ks[i].(int) < ks[j].(int) })
	suite.Equal([]interface{}{1, 2, 3, 4}, ks)
	suite.Equal(proxy.StateClean, suite.p.State())

	suite.True(keys.Remove(1))
	suite.False(keys.Remove(1))
	suite.Equal(proxy.StateDirty, suite.p.State())

	values := m.Values()
	suite.True(values.Contains("b"))
	suite.Len(values.ToSlice(), 3)
	suite.True(values.Remove("b"))
	suite.False(values.Remove("b"))
	suite.Equal(map[int]string{3: "c", 4: "d"}, suite.bean.Preferences)

	entries := m.Entries()
	suite.Equal(2, entries.Len())
	for _, e := range entries.ToSlice() {
		if e.Key() == 3 {
			suite.Equal("c", e.Value())
			old, err := e.SetValue("C")
			suite.NoError(err)
			suite.Equal("c", old)
		}
	}
	suite.Equal("C", suite.bean.Preferences[3])

	it := entries.Iterator()
	for it.Next() {
		e := it.Value().(*proxy.MapEntry)
		if e.Key() == 4 {
			suite.NoError(it.Remove())
			suite.Error(it.Remove())
		}
	}
	suite.Equal(map[int]string{3: "C"}, suite.bean.Preferences)

	vit := m.Values().Iterator()
	suite.True(vit.Next())
	suite.Equal("C", vit.Value())
	suite.False(vit.Next())

	kit := m.KeySet().Iterator()
	suite.True(kit.Next())
	suite.Equal(3, kit.Value())
	suite.NoError(kit.Remove())
	suite.Empty(suite.bean.Preferences)
}

// TestWrapperBuiltStandalone checks a wrapper built without a proxy still
// writes to its entity and dirty state
func (suite *ProxyTestSuite) TestWrapperBuiltStandalone() {
	ds := proxy.NewDirtyState()
	friends := suite.pm("friends")

	list := proxy.NewListWrapperBuilder(suite.pctx, suite.bean).
		DirtyState(ds).
		PropertyMeta(friends).
		Build()
	suite.NoError(list.Add("paul"))
	suite.Equal([]string{"paul"}, suite.bean.Friends)
	suite.True(ds.IsDirty(friends))
	suite.True(list.PropertyMeta() == friends)

	_, err := list.Resolve(suite.ctx, "paul")
	suite.Error(err)
}

// TestSetRetainAllConverts checks RetainAll matches members the way
// Contains does
func (suite *ProxyTestSuite) TestSetRetainAllConverts() {
	suite.bean.Followers = map[string]struct{}{"paul": {}, "john": {}, "george": {}}
	set := suite.set()

	suite.True(set.Contains(samples.Status("paul")))
	suite.True(set.RetainAll(samples.Status("paul"), "john", 12))
	suite.Equal(map[string]struct{}{"paul": {}, "john": {}}, suite.bean.Followers)
	suite.True(suite.p.DirtyState().IsDirty(suite.pm("followers")))

	suite.False(set.RetainAll("paul", "john"))
	suite.True(set.RetainAll())
	suite.Empty(suite.bean.Followers)
}

// TestListMatchesConvertedValues checks lookups convert their argument to
// the element type
func (suite *ProxyTestSuite) TestListMatchesConvertedValues() {
	suite.bean.Friends = []string{"paul", "john"}
	list := suite.list()

	suite.True(list.Contains(samples.Status("john")))
	suite.Equal(1, list.IndexOf(samples.Status("john")))
	suite.False(list.Contains(1))
	suite.True(list.RetainAll(samples.Status("paul")))
	suite.Equal([]string{"paul"}, suite.bean.Friends)
}

// TestWrapperErrors checks index, element and iterator misuse returns
// validation errors
func (suite *ProxyTestSuite) TestWrapperErrors() {
	list := suite.list()
	var verr *storage.ValidationError

	suite.True(errors.As(list.Insert(3, "ringo"), &verr))
	_, err := list.Set(0, "ringo")
	suite.True(errors.As(err, &verr))
	suite.True(errors.As(list.Add(12), &verr))
	suite.True(errors.As(list.Iterator().Remove(), &verr))

	_, err = suite.set().Add(12)
	suite.True(errors.As(err, &verr))
	suite.True(errors.As(suite.mapping().PutAll([]int{1}), &verr))

	_, err = suite.set().Resolve(suite.ctx, "paul")
	suite.True(errors.As(err, &verr))
}
