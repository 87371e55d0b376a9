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

package main

import (
	"github.com/mboudraa/Achilles/pkg/common/metrics"
	"github.com/mboudraa/Achilles/pkg/storage/connectors/cassandra"
)

// Config holds all configs to run counterchk
type Config struct {
	Storage cassandra.Config `yaml:"storage"`
	Metrics metrics.Config   `yaml:"metrics"`
	Logging LoggingConfig    `yaml:"logging"`
}

// LoggingConfig configures the log output
type LoggingConfig struct {
	// RedactTables are the tables whose statement values are never logged
	RedactTables []string `yaml:"redact_tables"`
}
