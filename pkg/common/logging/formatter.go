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
	"strings"

	log "github.com/sirupsen/logrus"
)

// RedactedStr replaces redacted log field values
const RedactedStr = "REDACTED"

// ArgsRedactingFormatter is a JSON formatter dropping the bound values of
// statements touching sensitive tables. The statement text is kept.
type ArgsRedactingFormatter struct {
	*log.JSONFormatter
	// Tables are the sensitive table names, matched case-insensitively
	Tables []string
}

// Format implements logrus.Formatter
func (f *ArgsRedactingFormatter) Format(entry *log.Entry) ([]byte, error) {
	if stmt, ok := entry.Data[DBStmtLogField].(string); ok && f.sensitive(stmt) {
		if _, ok := entry.Data[DBArgsLogField]; ok {
			data := make(log.Fields, len(entry.Data))
			for k, v := range entry.Data {
				data[k] = v
			}
			data[DBArgsLogField] = RedactedStr
			entry = withData(entry, data)
		}
	}
	return f.JSONFormatter.Format(entry)
}

func (f *ArgsRedactingFormatter) sensitive(stmt string) bool {
	stmt = strings.ToLower(stmt)
	for _, t := range f.Tables {
		if strings.Contains(stmt, `"`+strings.ToLower(t)+`"`) {
			return true
		}
	}
	return false
}

// LogFieldFormatter adds fixed fields, such as the application name, to
// every entry
type LogFieldFormatter struct {
	log.Formatter
	Fields log.Fields
}

// Format implements logrus.Formatter
func (f LogFieldFormatter) Format(entry *log.Entry) ([]byte, error) {
	data := make(log.Fields, len(entry.Data)+len(f.Fields))
	for k, v := range f.Fields {
		data[k] = v
	}
	for k, v := range entry.Data {
		data[k] = v
	}
	return f.Formatter.Format(withData(entry, data))
}

// withData returns a copy of entry holding data. Formatters must not
// mutate the entry shared with the other hooks.
func withData(entry *log.Entry, data log.Fields) *log.Entry {
	e := *entry
	e.Data = data
	return &e
}
