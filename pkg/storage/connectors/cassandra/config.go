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
	"time"

	"github.com/mboudraa/Achilles/pkg/storage/consistency"
)

// CassandraConn describes the properties to manage a Cassandra connection
type CassandraConn struct {
	ContactPoints      []string      `yaml:"contactPoints" validate:"nonzero"`
	Port               int           `yaml:"port"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	Consistency        string        `yaml:"consistency"`
	ConnectionsPerHost int           `yaml:"connectionsPerHost"`
	Timeout            time.Duration `yaml:"timeout"`
	SocketKeepalive    time.Duration `yaml:"socketKeepalive"`
	ProtoVersion       int           `yaml:"protoVersion"`
	DataCenter         string        `yaml:"dataCenter"` // data center filter
	PageSize           int           `yaml:"pageSize"`
	RetryCount         int           `yaml:"retryCount"`
	HostPolicy         string        `yaml:"hostPolicy"`
	TimeoutLimit       int           `yaml:"timeoutLimit"` // number of timeouts allowed
	CQLVersion         string        `yaml:"cqlVersion"`   // set only on C* 3.x
}

// Config is the config for the cassandra connector
type Config struct {
	CassandraConn *CassandraConn `yaml:"connection" validate:"nonzero"`
	// StoreName is the keyspace entities live in
	StoreName string `yaml:"store_name" validate:"nonzero"`
	// ReadConsistency is the consistency of reads of entities declaring
	// none, LOCAL_QUORUM if unset
	ReadConsistency consistency.Level `yaml:"read_consistency"`
	// WriteConsistency is the consistency of writes of entities declaring
	// none, LOCAL_QUORUM if unset
	WriteConsistency consistency.Level `yaml:"write_consistency"`
}

// Policy returns the consistency policy of the config
func (c *Config) Policy() (*consistency.Policy, error) {
	read, write := c.ReadConsistency, c.WriteConsistency
	if !read.IsSet() {
		read = consistency.LocalQuorum
	}
	if !write.IsSet() {
		write = consistency.LocalQuorum
	}
	return consistency.NewPolicy(read, write)
}
