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

// Package samples holds annotated entities exercising every property kind.
// They are used by the storage tests and by cmd/counterchk's self check.
package samples

import (
	"time"

	"github.com/gocql/gocql"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
)

// Status is a named string persisted through its underlying kind
type Status string

// UserBean is a join target with a simple id
type UserBean struct {
	base.Object `cassandra:"name=users"`
	UserID      int64  `column:"name=user_id, id"`
	Firstname   string `column:"name=firstname"`
	Lastname    string `column:"name=lastname"`
}

// Address is a non entity struct, persisted as json text
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

// CompleteBean maps every kind of property
type CompleteBean struct {
	base.Object `cassandra:"name=complete_bean, read=LOCAL_QUORUM, write=ONE"`
	ID          int64               `column:"name=id, id"`
	Name        string              `column:"name=name"`
	Label       *string             `column:"name=label"`
	Age         int64               `column:"name=age_in_years"`
	Status      Status              `column:"name=status"`
	Address     *Address            `column:"name=address"`
	Created     time.Time           `column:"name=created"`
	Friends     []string            `column:"name=friends, lazy"`
	Followers   map[string]struct{} `column:"name=followers"`
	Preferences map[int]string      `column:"name=preferences"`
	Welcome     string              `column:"name=welcome_tweet, lazy"`
	User        *UserBean           `column:"name=user, join"`
	Favorites   []*UserBean         `column:"name=favorites, join"`
	Version     base.Counter        `column:"name=version"`

	// Transient is never persisted
	Transient string
}

// TweetKey is a compound key declared out of sequence order
type TweetKey struct {
	Date   time.Time  `column:"name=date, order=2"`
	UserID gocql.UUID `column:"name=user_id, order=1"`
}

// Tweet has an embedded id
type Tweet struct {
	base.Object `cassandra:"name=tweets"`
	ID          TweetKey `column:"name=id, embeddedId"`
	Content     string   `column:"name=content"`
	Tags        []string `column:"name=tags"`
}

// ConstructedKeyBean has a compound key built through a constructor
type ConstructedKeyBean struct {
	base.Object `cassandra:"name=constructed"`
	Key         KeyByConstructor `column:"name=key, embeddedId"`
	Value       string           `column:"name=value"`
}

// KeyByConstructor is a compound key with a constructor binding both
// components to argument positions.
type KeyByConstructor struct {
	ID   int64  `column:"name=id, order=1"`
	Name string `column:"name=name, order=2"`
}

// NewKeyByConstructor creates a KeyByConstructor
func NewKeyByConstructor(name string, id int64) KeyByConstructor {
	return KeyByConstructor{ID: id, Name: name}
}

// Constructor implements base.KeyConstructor
func (KeyByConstructor) Constructor() (interface{}, []string) {
	return NewKeyByConstructor, []string{"name", "id"}
}

// ClusteredKey is the key of ClusteredCounterBean
type ClusteredKey struct {
	ID   int64  `column:"name=id, order=1"`
	Name string `column:"name=name, order=2"`
}

// ClusteredCounterBean only has counters besides its compound key
type ClusteredCounterBean struct {
	base.Object `cassandra:"name=clustered_counter"`
	ID          ClusteredKey `column:"name=id, embeddedId"`
	Hits        base.Counter `column:"name=hits"`
}
