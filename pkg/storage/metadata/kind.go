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

package metadata

// Kind is the semantic kind of a mapped property. Kind together with the
// value type of a property selects exactly one transcoding strategy.
type Kind int

// Every kind of property. KindCount must stay last, it is used to size the
// per-kind strategy tables so that a new kind can not go unhandled.
const (
	KindID Kind = iota
	KindEmbeddedID
	KindSimple
	KindList
	KindSet
	KindMap
	KindCounter
	KindJoinSimple
	KindJoinList
	KindJoinSet
	KindJoinMap

	KindCount
)

var _kindNames = [KindCount]string{
	KindID:         "ID",
	KindEmbeddedID: "EMBEDDED_ID",
	KindSimple:     "SIMPLE",
	KindList:       "LIST",
	KindSet:        "SET",
	KindMap:        "MAP",
	KindCounter:    "COUNTER",
	KindJoinSimple: "JOIN_SIMPLE",
	KindJoinList:   "JOIN_LIST",
	KindJoinSet:    "JOIN_SET",
	KindJoinMap:    "JOIN_MAP",
}

// String returns the name of the kind
func (k Kind) String() string {
	if k < 0 || k >= KindCount {
		return "UNKNOWN"
	}
	return _kindNames[k]
}

// IsJoin returns true for the JOIN_* kinds
func (k Kind) IsJoin() bool {
	switch k {
	case KindJoinSimple, KindJoinList, KindJoinSet, KindJoinMap:
		return true
	}
	return false
}

// IsCollection returns true for list, set and map kinds, joined or not
func (k Kind) IsCollection() bool {
	switch k {
	case KindList, KindSet, KindMap, KindJoinList, KindJoinSet, KindJoinMap:
		return true
	}
	return false
}

// IsID returns true for ID and EMBEDDED_ID
func (k Kind) IsID() bool {
	return k == KindID || k == KindEmbeddedID
}

// joinOf maps a non join kind to its join counterpart
func (k Kind) joinOf() (Kind, bool) {
	switch k {
	case KindSimple:
		return KindJoinSimple, true
	case KindList:
		return KindJoinList, true
	case KindSet:
		return KindJoinSet, true
	case KindMap:
		return KindJoinMap, true
	}
	return k, false
}
