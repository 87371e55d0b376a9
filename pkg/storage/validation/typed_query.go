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

package validation

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	log "github.com/sirupsen/logrus"
)

// selectQuery parses: SELECT [DISTINCT] (* | selector, ...) FROM [ks.]table ...
// Everything after the table is captured as raw tokens.
type selectQuery struct {
	Distinct bool        `parser:"'select' @'distinct'?"`
	Star     bool        `parser:"( @'*'"`
	Columns  []*selector `parser:"| @@ ( ',' @@ )* )"`
	Table    []string    `parser:"'from' @(Ident | Quoted) ( '.' @(Ident | Quoted) )?"`
	Tail     []string    `parser:"@(Keyword | Ident | Quoted | String | Number | Operator | Punct)*"`
}

// selector is a column, or a function call such as writetime(col), with an
// optional alias.
type selector struct {
	Call   *call  `parser:"  @@"`
	Column string `parser:"| @(Ident | Quoted)"`
	Alias  string `parser:"( 'as' @(Ident | Quoted) )?"`
}

type call struct {
	Func string   `parser:"@Ident '('"`
	Args []string `parser:"( @('*' | Ident | Quoted) ( ',' @('*' | Ident | Quoted) )* )? ')'"`
}

var cqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `(?i)\b(select|distinct|from|as|where|and|in|limit|order|by|asc|desc|allow|filtering)\b`},
	{Name: "Quoted", Pattern: `"(?:[^"]|"")*"`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `<=|>=|!=|[=<>]`},
	{Name: "Punct", Pattern: `[-+*/.,;:?()\[\]{}]`},
})

var selectParser = participle.MustBuild[selectQuery](
	participle.Lexer(cqlLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(3),
)

// identifier normalizes a column or table name: quoted names keep their
// case, others are lower-cased as Cassandra does.
func identifier(name string) string {
	if len(name) >= 2 && strings.HasPrefix(name, `"`) && strings.HasSuffix(name, `"`) {
		return strings.ReplaceAll(name[1:len(name)-1], `""`, `"`)
	}
	return strings.ToLower(name)
}

// columns returns the columns projected by q, those used as function
// arguments included.
func (q *selectQuery) columns() map[string]bool {
	cols := make(map[string]bool)
	for _, s := range q.Columns {
		if s.Call != nil {
			for _, arg := range s.Call.Args {
				cols[identifier(arg)] = true
			}
			continue
		}
		cols[identifier(s.Column)] = true
	}
	return cols
}

func (q *selectQuery) table() string {
	return identifier(q.Table[len(q.Table)-1])
}

// TypedQueryValidator checks user supplied select queries can be mapped
// back to an entity.
type TypedQueryValidator struct{}

// NewTypedQueryValidator creates a TypedQueryValidator
func NewTypedQueryValidator() *TypedQueryValidator {
	return &TypedQueryValidator{}
}

func (v *TypedQueryValidator) parse(query string) (*selectQuery, error) {
	q, err := selectParser.ParseString("query", query)
	if err != nil {
		return nil, storage.NewValidationError("the typed query [%s] is not a valid select: %s",
			query, err)
	}
	return q, nil
}

// ValidateRawTypedQuery checks the query selects from the table of em. It
// warns about selected join columns, which are not mapped back.
func (v *TypedQueryValidator) ValidateRawTypedQuery(em *metadata.EntityMeta, query string) error {
	q, err := v.parse(query)
	if err != nil {
		return err
	}
	return v.validateRaw(em, query, q)
}

func (v *TypedQueryValidator) validateRaw(em *metadata.EntityMeta, query string, q *selectQuery) error {
	if !strings.EqualFold(q.table(), em.TableName) {
		return storage.NewValidationError(
			"the typed query [%s] should contain the 'from %s' clause if type is '%s'",
			query, em.TableName, em.TypeName)
	}

	cols := q.columns()
	for _, pm := range em.AllMetasExceptID() {
		if pm.IsJoin() && cols[strings.ToLower(pm.Name)] {
			log.WithFields(log.Fields{
				"column": pm.Name,
				"query":  query,
				"entity": em.TypeName,
			}).Warn("join column of a typed query will not be mapped to the entity")
		}
	}
	return nil
}

// ValidateTypedQuery checks the query selects from the table of em, and
// that a projection other than * includes the primary key columns.
func (v *TypedQueryValidator) ValidateTypedQuery(em *metadata.EntityMeta, query string) error {
	q, err := v.parse(query)
	if err != nil {
		return err
	}
	if err := v.validateRaw(em, query, q); err != nil {
		return err
	}
	if q.Star {
		return nil
	}

	cols := q.columns()
	if em.IDMeta.IsEmbeddedID() {
		for _, component := range em.IDMeta.MultiKey.ComponentNames {
			if !cols[strings.ToLower(component)] {
				return storage.NewValidationError(
					"the typed query [%s] should contain the component column '%s' for embedded id type '%s'",
					query, component, em.IDMeta.MultiKey.KeyType.Name())
			}
		}
		return nil
	}
	if !cols[strings.ToLower(em.IDMeta.Name)] {
		return storage.NewValidationError("the typed query [%s] should contain the id column '%s'",
			query, em.IDMeta.Name)
	}
	return nil
}
