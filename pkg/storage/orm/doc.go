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

/*
Package orm is the persistence manager of annotated entities.

A Client persists, finds, updates and removes entities declared with the
`cassandra` and `column` annotations of package base. Entities found by
the client are returned wrapped in a *proxy.Proxy which records the
properties mutated afterwards, so that Update only writes those. The
Client is the persistence context of its proxies: lazy properties, joins
and counters are loaded through it on first access.

Consistency levels resolve, per operation, from the override set on the
consistency.Context of the call if any, then from the entity annotation,
then from the defaults of the client policy.
*/
package orm
