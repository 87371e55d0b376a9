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

package consistency

import (
	"fmt"
	"strings"

	"github.com/gocql/gocql"
)

// Level is the replica acknowledgement requirement of one read or write.
// The zero value Unset means no level was chosen and never reaches the
// driver.
type Level int

// Supported consistency levels
const (
	Unset Level = iota
	Any
	One
	Two
	Three
	Quorum
	All
	LocalQuorum
	EachQuorum
	LocalOne
	Serial
	LocalSerial

	levelCount
)

var _levels = [levelCount]struct {
	name  string
	gocql gocql.Consistency
}{
	Unset:       {"UNSET", gocql.Any},
	Any:         {"ANY", gocql.Any},
	One:         {"ONE", gocql.One},
	Two:         {"TWO", gocql.Two},
	Three:       {"THREE", gocql.Three},
	Quorum:      {"QUORUM", gocql.Quorum},
	All:         {"ALL", gocql.All},
	LocalQuorum: {"LOCAL_QUORUM", gocql.LocalQuorum},
	EachQuorum:  {"EACH_QUORUM", gocql.EachQuorum},
	LocalOne:    {"LOCAL_ONE", gocql.LocalOne},
	Serial:      {"SERIAL", gocql.Consistency(gocql.Serial)},
	LocalSerial: {"LOCAL_SERIAL", gocql.Consistency(gocql.LocalSerial)},
}

// String returns the CQL name of the level
func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return _levels[l].name
}

// IsSet returns true for any level but Unset
func (l Level) IsSet() bool {
	return l != Unset && l.valid()
}

// Gocql maps the level to the driver's consistency
func (l Level) Gocql() gocql.Consistency {
	if !l.IsSet() {
		panic(fmt.Sprintf("consistency level %s can not be sent to the driver", l))
	}
	return _levels[l].gocql
}

func (l Level) valid() bool {
	return l >= 0 && l < levelCount
}

// ParseLevel parses a level name, case-insensitively. Both "LOCAL_QUORUM"
// and "LocalQuorum" are accepted.
func ParseLevel(name string) (Level, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for l := Any; l < levelCount; l++ {
		n := _levels[l].name
		if normalized == n || normalized == strings.Replace(n, "_", "", -1) {
			return l, nil
		}
	}
	return Unset, fmt.Errorf("unknown consistency level %q", name)
}

// UnmarshalText implements encoding.TextUnmarshaler so levels can be read
// from yaml configuration.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
