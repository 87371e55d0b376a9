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

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// TestArgsRedactingFormatter tests the bound values of statements on
// sensitive tables are redacted while the statement is kept
func TestArgsRedactingFormatter(t *testing.T) {
	formatter := &ArgsRedactingFormatter{
		JSONFormatter: &log.JSONFormatter{},
		Tables:        []string{"Credentials"},
	}

	entry := log.WithFields(log.Fields{
		DBStmtLogField: `INSERT INTO "credentials" ("user_id","secret") VALUES (?,?);`,
		DBArgsLogField: []interface{}{int64(7), "hunter2"},
	})
	b, err := formatter.Format(entry)
	assert.NoError(t, err)
	s := string(b)
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, RedactedStr)
	assert.Contains(t, s, "credentials")

	// the entry seen by other hooks is untouched
	assert.Equal(t, []interface{}{int64(7), "hunter2"}, entry.Data[DBArgsLogField])
}

func TestArgsRedactingFormatterOtherTables(t *testing.T) {
	formatter := &ArgsRedactingFormatter{
		JSONFormatter: &log.JSONFormatter{},
		Tables:        []string{"credentials"},
	}

	for _, stmt := range []string{
		`SELECT "user_id" FROM "users" WHERE "user_id"=?;`,
		// a column named like the table is not the table
		`UPDATE "users" SET credentials_count=? WHERE "user_id"=?;`,
	} {
		b, err := formatter.Format(log.WithFields(log.Fields{
			DBStmtLogField: stmt,
			DBArgsLogField: []interface{}{"visible"},
		}))
		assert.NoError(t, err)
		assert.Contains(t, string(b), "visible")
		assert.NotContains(t, string(b), RedactedStr)
	}
}
