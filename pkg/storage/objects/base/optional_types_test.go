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

package base

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
)

type OptionalTypeTestSuite struct {
	suite.Suite
}

func TestOptionalTypeTestSuite(t *testing.T) {
	suite.Run(t, new(OptionalTypeTestSuite))
}

func (s *OptionalTypeTestSuite) TestNewOptionalString() {
	s.Nil(NewOptionalString(1))
	s.Nil(NewOptionalString(""))
	s.Equal(&OptionalString{Value: "test"}, NewOptionalString("test"))
	s.Equal("test", NewOptionalString("test").RawValue())
}

func (s *OptionalTypeTestSuite) TestNewOptionalUInt64() {
	s.Nil(NewOptionalUInt64(""))
	s.Equal(&OptionalUInt64{Value: 1}, NewOptionalUInt64(uint64(1)))
	s.Equal(&OptionalUInt64{Value: 7}, NewOptionalUInt64(int64(7)))
	s.Equal(int64(7), NewOptionalUInt64(int64(7)).RawValue())
}

func (s *OptionalTypeTestSuite) TestIsOfTypeOptional() {
	s.True(IsOfTypeOptional(reflect.TypeOf(&OptionalString{})))
	s.True(IsOfTypeOptional(reflect.TypeOf(&OptionalUInt64{})))
	s.False(IsOfTypeOptional(reflect.TypeOf("")))
}

func (s *OptionalTypeTestSuite) TestConvertFromRawToOptionalType() {
	v := ConvertFromRawToOptionalType(reflect.TypeOf(&OptionalUInt64{}), int64(3))
	s.Equal(&OptionalUInt64{Value: 3}, v.Interface())

	v = ConvertFromRawToOptionalType(reflect.TypeOf(&OptionalString{}), "x")
	s.Equal(&OptionalString{Value: "x"}, v.Interface())
	s.Equal(reflect.TypeOf(int64(0)), RawTypeOfOptional(reflect.TypeOf(&OptionalUInt64{})))
}
