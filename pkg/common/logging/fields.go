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

package logging

// Log fields shared by the storage layer. Formatters of this package key
// their redaction on them.
const (
	// DBStmtLogField is the CQL text of a statement
	DBStmtLogField = "db_stmt"
	// DBArgsLogField are the values bound to a statement
	DBArgsLogField = "db_args"
	// ConsistencyLogField is the consistency level a statement ran at
	ConsistencyLogField = "consistency"
)
