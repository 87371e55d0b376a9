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

package statement

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CQLSuite struct {
	suite.Suite
}

func TestCQLSuite(t *testing.T) {
	suite.Run(t, new(CQLSuite))
}

// TestInsertStmt tests constructing insert CQL query
func (suite *CQLSuite) TestInsertStmt() {
	data := []struct {
		table   string
		columns []string
		stmt    string
	}{
		{
			table:   "table1",
			columns: []string{"c1", "c2"},
			stmt:    `INSERT INTO "table1" ("c1", "c2") VALUES (?, ?);`,
		},
		{
			table:   "table2",
			columns: []string{"c1"},
			stmt:    `INSERT INTO "table2" ("c1") VALUES (?);`,
		},
	}

	for _, d := range data {
		stmt, err := InsertStmt(Table(d.table), Columns(d.columns))
		suite.NoError(err)
		suite.Equal(d.stmt, stmt)
	}
}

// TestUpdateStmt tests constructing update CQL query
func (suite *CQLSuite) TestUpdateStmt() {
	stmt, err := UpdateStmt(
		Table("table1"),
		Set([]string{"c1", "c2"}),
		Conditions([]string{"k1", "k2"}),
	)
	suite.NoError(err)
	suite.Equal(
		`UPDATE "table1" SET "c1"=?, "c2"=? WHERE "k1"=? AND "k2"=?;`, stmt)

	stmt, err = UpdateStmt(
		Table("table1"),
		Increment("hits"),
		Conditions([]string{"k1"}),
	)
	suite.NoError(err)
	suite.Equal(`UPDATE "table1" SET "hits"="hits"+? WHERE "k1"=?;`, stmt)
}

// TestSelectStmt tests constructing select CQL query
func (suite *CQLSuite) TestSelectStmt() {
	stmt, err := SelectStmt(
		Table("table1"),
		Columns([]string{"c1", "c2"}),
		Conditions([]string{"k1"}),
	)
	suite.NoError(err)
	suite.Equal(`SELECT "c1", "c2" FROM "table1" WHERE "k1"=?;`, stmt)

	// without conditions there is no where clause
	stmt, err = SelectStmt(Table("table1"), Columns([]string{"c1"}))
	suite.NoError(err)
	suite.Equal(`SELECT "c1" FROM "table1";`, stmt)
}

// TestDeleteStmt tests constructing delete CQL query
func (suite *CQLSuite) TestDeleteStmt() {
	stmt, err := DeleteStmt(Table("table1"), Conditions([]string{"k1", "k2"}))
	suite.NoError(err)
	suite.Equal(`DELETE FROM "table1" WHERE "k1"=? AND "k2"=?;`, stmt)
}

// TestIdentifiersAreFolded tests mixed-case names are quoted lower-cased
func (suite *CQLSuite) TestIdentifiersAreFolded() {
	stmt, err := UpdateStmt(
		Table("MixedTable"),
		Set([]string{"userName"}),
		Conditions([]string{"ID"}),
	)
	suite.NoError(err)
	suite.Equal(`UPDATE "mixedtable" SET "username"=? WHERE "id"=?;`, stmt)

	stmt, err = UpdateStmt(Table("Counters"), Increment("Hits"), Conditions([]string{"k1"}))
	suite.NoError(err)
	suite.Equal(`UPDATE "counters" SET "hits"="hits"+? WHERE "k1"=?;`, stmt)
}
