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

package orm

import (
	"context"
	"reflect"
	"strings"

	"github.com/mboudraa/Achilles/pkg/storage"
	"github.com/mboudraa/Achilles/pkg/storage/binder"
	"github.com/mboudraa/Achilles/pkg/storage/consistency"
	"github.com/mboudraa/Achilles/pkg/storage/metadata"
	"github.com/mboudraa/Achilles/pkg/storage/objects/base"
	"github.com/mboudraa/Achilles/pkg/storage/proxy"
	"github.com/mboudraa/Achilles/pkg/storage/statement"
	"github.com/mboudraa/Achilles/pkg/storage/transcoder"
	"github.com/mboudraa/Achilles/pkg/storage/validation"

	"github.com/gocql/gocql"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	"go.uber.org/multierr"
	"go.uber.org/yarpc/yarpcerrors"
)

// Client is the persistence manager of the entities it was created with
type Client struct {
	registry   *metadata.Registry
	transcoder *transcoder.Transcoder
	binder     *binder.Binder
	generator  *statement.Generator
	policy     *consistency.Policy
	queries    *validation.TypedQueryValidator
	connector  Connector
	metrics    *storage.OrmMetrics
}

// ensure that Client is the persistence context of its proxies
var _ proxy.Context = (*Client)(nil)

// NewClient returns a new ORM client for the entities and connector
// provided. The metadata of every entity, and of their join targets, is
// built upfront so that mapping errors surface here.
func NewClient(
	conn Connector,
	policy *consistency.Policy,
	scope tally.Scope,
	objects ...base.Object,
) (*Client, error) {
	registry := metadata.NewRegistry()
	for _, o := range objects {
		if _, err := registry.Get(o); err != nil {
			return nil, err
		}
	}
	t := transcoder.New()
	return &Client{
		registry:   registry,
		transcoder: t,
		binder:     binder.New(t),
		generator:  statement.NewGenerator(),
		policy:     policy,
		queries:    validation.NewTypedQueryValidator(),
		connector:  conn,
		metrics:    storage.NewOrmMetrics(scope.SubScope("orm")),
	}, nil
}

// Meta returns the metadata of the type of entity. entity may be a
// pointer, a struct value, a reflect.Type or a *proxy.Proxy.
func (c *Client) Meta(entity interface{}) (*metadata.EntityMeta, error) {
	if p, ok := entity.(*proxy.Proxy); ok {
		return p.Meta(), nil
	}
	em, ok := c.registry.Lookup(entity)
	if !ok {
		t, isType := entity.(reflect.Type)
		if !isType {
			t = reflect.TypeOf(entity)
		}
		return nil, yarpcerrors.NotFoundErrorf("Table not found for entity: %v", t)
	}
	return em, nil
}

// target returns the metadata and the entity pointer of entity, unwrapping
// proxies
func (c *Client) target(entity interface{}) (*metadata.EntityMeta, interface{}, error) {
	em, err := c.Meta(entity)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := entity.(*proxy.Proxy); ok {
		return em, p.Entity(), nil
	}
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, nil, storage.NewValidationError(
			"entity %s must be passed as a non nil pointer", em.TypeName)
	}
	return em, entity, nil
}

// reinit drops the consistency overrides of the call once the operation
// is done
func reinit(ctx context.Context) {
	if cc, ok := consistency.FromContext(ctx); ok {
		cc.Reinit()
	}
}

// Persist inserts entity. Counters holding a value, such as a
// base.DetachedCounter, seed the stored counters, and are then replaced by
// counters bound to the client.
func (c *Client) Persist(ctx context.Context, entity interface{}) (err error) {
	defer reinit(ctx)
	defer func() {
		if err != nil {
			c.metrics.EntityPersistFail.Inc(1)
			return
		}
		c.metrics.EntityPersist.Inc(1)
	}()

	em, e, err := c.target(entity)
	if err != nil {
		return err
	}

	// rows of counter tables only come into existence through increments
	if !em.ClusteredCounter {
		stmt, err := c.generator.Insert(em)
		if err != nil {
			return err
		}
		bv, err := c.binder.BindForInsert(stmt, em, e)
		if err != nil {
			return err
		}
		if err := c.connector.Execute(ctx, bv, c.policy.WriteLevel(ctx, em)); err != nil {
			return err
		}
	}

	for _, pm := range em.CounterMetas() {
		if err := c.seedCounter(ctx, em, e, pm); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"entity": em.TypeName,
		"table":  em.TableName,
	}).Debug("entity persisted")
	return nil
}

func (c *Client) seedCounter(
	ctx context.Context,
	em *metadata.EntityMeta,
	entity interface{},
	pm *metadata.PropertyMeta,
) error {
	if counter, ok := pm.GetValue(entity).(base.Counter); ok {
		if _, bound := counter.(*proxy.CounterWrapper); !bound {
			v, err := counter.Get(ctx)
			if err != nil {
				return err
			}
			if v != 0 {
				if err := c.IncrementCounter(ctx, em, entity, pm, v); err != nil {
					return err
				}
			}
		}
	}
	return pm.SetValue(entity, proxy.NewCounterWrapper(c, em, entity, pm))
}

// Find loads the entity of primary key pk into entity, which must be a
// pointer to a mapped struct, and returns it proxied. Lazy properties and
// joins are left unloaded. A missing row is a yarpc NotFound error.
func (c *Client) Find(
	ctx context.Context,
	entity interface{},
	pk interface{},
) (p *proxy.Proxy, err error) {
	defer reinit(ctx)

	em, e, err := c.target(entity)
	if err != nil {
		c.metrics.EntityFindFail.Inc(1)
		return nil, err
	}

	p, err = c.find(ctx, em, e, pk)
	switch {
	case yarpcerrors.IsNotFound(err):
		c.metrics.EntityFindNotFound.Inc(1)
	case err != nil:
		c.metrics.EntityFindFail.Inc(1)
	default:
		c.metrics.EntityFind.Inc(1)
	}
	return p, err
}

func (c *Client) find(
	ctx context.Context,
	em *metadata.EntityMeta,
	entity interface{},
	pk interface{},
) (*proxy.Proxy, error) {
	stmt, err := c.generator.SelectEager(em)
	if err != nil {
		return nil, err
	}
	bv, err := c.binder.BindStatementWithOnlyPrimaryKey(stmt, em, pk)
	if err != nil {
		return nil, err
	}
	rows, err := c.connector.Query(ctx, bv, c.policy.ReadLevel(ctx, em))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, yarpcerrors.NotFoundErrorf(
			"%s not found for primary key %v", em.TypeName, pk)
	}

	row := normalize(rows[0])
	for _, pm := range em.EagerMetas() {
		if err := c.decodeProperty(pm, entity, row); err != nil {
			return nil, err
		}
	}
	for _, pm := range em.CounterMetas() {
		if err := pm.SetValue(entity, proxy.NewCounterWrapper(c, em, entity, pm)); err != nil {
			return nil, err
		}
	}
	return proxy.New(c, em, entity), nil
}

// normalize lower-cases the column names of a row
func normalize(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[strings.ToLower(k)] = v
	}
	return out
}

// decodeProperty sets pm on entity from the columns of row. Columns
// absent from the row leave the property untouched.
func (c *Client) decodeProperty(
	pm *metadata.PropertyMeta,
	entity interface{},
	row map[string]interface{},
) error {
	if pm.IsEmbeddedID() {
		components := make([]interface{}, pm.MultiKey.Len())
		for i, name := range pm.MultiKey.ComponentNames {
			v, ok := row[strings.ToLower(name)]
			if !ok {
				return nil
			}
			components[i] = v
		}
		key, err := c.transcoder.DecodeFromComponents(pm, components)
		if err != nil {
			return err
		}
		return pm.SetValue(entity, key)
	}

	wire, ok := row[strings.ToLower(pm.Name)]
	if !ok {
		return nil
	}
	v, err := c.transcoder.Decode(pm, wire)
	if err != nil {
		return err
	}
	if err := pm.SetValue(entity, v); err != nil {
		return storage.NewEncodingError(pm.Name, pm.Kind.String(), "%v", err)
	}
	return nil
}

// Update writes the properties mutated on p since it was found or last
// updated, then acknowledges them. Updating a clean proxy is a no-op.
func (c *Client) Update(ctx context.Context, p *proxy.Proxy) (err error) {
	defer reinit(ctx)

	if p.State() == proxy.StateClean {
		c.metrics.EntityUpdateNoop.Inc(1)
		return nil
	}
	defer func() {
		if err != nil {
			c.metrics.EntityUpdateFail.Inc(1)
			return
		}
		c.metrics.EntityUpdate.Inc(1)
	}()

	em := p.Meta()
	dirty := p.DirtyProperties()
	stmt, err := c.generator.Update(em, dirty)
	if err != nil {
		return err
	}
	bv, err := c.binder.BindForUpdate(stmt, em, p.Entity(), dirty)
	if err != nil {
		return err
	}
	if err := c.connector.Execute(ctx, bv, c.policy.WriteLevel(ctx, em)); err != nil {
		return err
	}

	c.metrics.DirtyProperties.RecordValue(float64(len(dirty)))
	p.Acknowledge()
	return nil
}

// Remove deletes entity, and the rows of its simple counters
func (c *Client) Remove(ctx context.Context, entity interface{}) (err error) {
	defer reinit(ctx)
	defer func() {
		if err != nil {
			c.metrics.EntityRemoveFail.Inc(1)
			return
		}
		c.metrics.EntityRemove.Inc(1)
	}()

	em, e, err := c.target(entity)
	if err != nil {
		return err
	}
	pk := em.PrimaryKey(e)
	level := c.policy.WriteLevel(ctx, em)

	var bv *binder.BoundValues
	if em.ClusteredCounter {
		stmt, err := c.generator.ClusteredCounterDelete(em)
		if err != nil {
			return err
		}
		bv, err = c.binder.BindForClusteredCounterDelete(stmt, em, pk)
		if err != nil {
			return err
		}
	} else {
		stmt, err := c.generator.Delete(em)
		if err != nil {
			return err
		}
		bv, err = c.binder.BindStatementWithOnlyPrimaryKey(stmt, em, pk)
		if err != nil {
			return err
		}
	}
	if err := c.connector.Execute(ctx, bv, level); err != nil {
		return err
	}

	if em.ClusteredCounter {
		return nil
	}
	for _, pm := range em.CounterMetas() {
		stmt, err := c.generator.SimpleCounterDelete()
		if err != nil {
			return err
		}
		bv, err := c.binder.BindForSimpleCounterDelete(stmt, em, pm, pk)
		if err != nil {
			return err
		}
		if err := c.connector.Execute(ctx, bv, level); err != nil {
			return err
		}
	}
	return nil
}

// TypedQuery runs a select on the table of entity, a mapped struct or its
// type, and returns the matching entities proxied. The query must select
// the primary key columns. Only the selected properties are loaded, the
// others load on first read. Join columns are not mapped.
func (c *Client) TypedQuery(
	ctx context.Context,
	entity interface{},
	query string,
	args ...interface{},
) (proxies []*proxy.Proxy, err error) {
	defer reinit(ctx)
	defer c.countTypedQuery(&err)

	em, err := c.Meta(entity)
	if err != nil {
		return nil, err
	}
	if err := c.queries.ValidateTypedQuery(em, query); err != nil {
		return nil, err
	}
	rows, err := c.typedQuery(ctx, em, query, args)
	if err != nil {
		return nil, err
	}

	proxies = make([]*proxy.Proxy, 0, len(rows))
	for _, row := range rows {
		e, loaded, err := c.mapRow(em, normalize(row))
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, proxy.NewLoaded(c, em, e, loaded))
	}
	return proxies, nil
}

// TypedQueryFirst is like TypedQuery but only returns the first entity.
// It returns a nil proxy and no error when no row matched.
func (c *Client) TypedQueryFirst(
	ctx context.Context,
	entity interface{},
	query string,
	args ...interface{},
) (*proxy.Proxy, error) {
	proxies, err := c.TypedQuery(ctx, entity, query, args...)
	if err != nil || len(proxies) == 0 {
		return nil, err
	}
	return proxies[0], nil
}

// RawTypedQuery runs a select on the table of the entities of dest and
// appends them, unmanaged, to dest, a pointer to a slice of entity
// pointers. The primary key columns may be left out of the query.
func (c *Client) RawTypedQuery(
	ctx context.Context,
	dest interface{},
	query string,
	args ...interface{},
) (err error) {
	defer reinit(ctx)
	defer c.countTypedQuery(&err)

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice ||
		dv.Elem().Type().Elem().Kind() != reflect.Ptr {
		return storage.NewValidationError(
			"typed query destination must be a pointer to a slice of entity pointers, got %T", dest)
	}
	slice := dv.Elem()
	em, err := c.Meta(slice.Type().Elem())
	if err != nil {
		return err
	}
	if err := c.queries.ValidateRawTypedQuery(em, query); err != nil {
		return err
	}
	rows, err := c.typedQuery(ctx, em, query, args)
	if err != nil {
		return err
	}

	for _, row := range rows {
		e, _, err := c.mapRow(em, normalize(row))
		if err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, reflect.ValueOf(e)))
	}
	return nil
}

func (c *Client) countTypedQuery(err *error) {
	if *err != nil {
		c.metrics.TypedQueryFail.Inc(1)
		return
	}
	c.metrics.TypedQuery.Inc(1)
}

func (c *Client) typedQuery(
	ctx context.Context,
	em *metadata.EntityMeta,
	query string,
	args []interface{},
) ([]map[string]interface{}, error) {
	bv := &binder.BoundValues{
		Statement: statement.NewTypedQuery(em.TableName, query),
		Values:    args,
	}
	return c.connector.Query(ctx, bv, c.policy.ReadLevel(ctx, em))
}

// mapRow decodes a typed query row into a new entity. It returns the
// properties whose columns were selected. Counters are bound to their
// counter rows, joins are left nil.
func (c *Client) mapRow(
	em *metadata.EntityMeta,
	row map[string]interface{},
) (interface{}, []*metadata.PropertyMeta, error) {
	e := em.New()
	var loaded []*metadata.PropertyMeta
	for _, pm := range em.Properties() {
		switch {
		case pm.IsJoin():
			continue
		case pm.IsCounter():
			if err := pm.SetValue(e, proxy.NewCounterWrapper(c, em, e, pm)); err != nil {
				return nil, nil, err
			}
			continue
		}
		if !selected(em, pm, row) {
			continue
		}
		if err := c.decodeProperty(pm, e, row); err != nil {
			return nil, nil, err
		}
		loaded = append(loaded, pm)
	}
	return e, loaded, nil
}

// selected returns true if every column of pm is in row
func selected(em *metadata.EntityMeta, pm *metadata.PropertyMeta, row map[string]interface{}) bool {
	for _, column := range em.ColumnsOf([]*metadata.PropertyMeta{pm}) {
		if _, ok := row[column]; !ok {
			return false
		}
	}
	return true
}

// LoadProperty implements proxy.Context. It selects the column of pm and
// sets it on the entity of p. Joins are set to a reference holding only
// the target id.
func (c *Client) LoadProperty(ctx context.Context, p *proxy.Proxy, pm *metadata.PropertyMeta) (err error) {
	defer func() {
		if err != nil {
			c.metrics.LazyLoadFail.Inc(1)
			return
		}
		c.metrics.LazyLoad.Inc(1)
	}()

	em := p.Meta()
	stmt, err := c.generator.SelectProperty(em, pm)
	if err != nil {
		return err
	}
	bv, err := c.binder.BindStatementWithOnlyPrimaryKey(stmt, em, em.PrimaryKey(p.Entity()))
	if err != nil {
		return err
	}
	rows, err := c.connector.Query(ctx, bv, c.policy.ReadLevel(ctx, em))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return yarpcerrors.NotFoundErrorf("%s was removed", em.TypeName)
	}
	return c.decodeProperty(pm, p.Entity(), normalize(rows[0]))
}

// FetchJoin implements proxy.Context. It finds the target of the join pm
// designated by reference. A missing target yields a nil proxy.
func (c *Client) FetchJoin(
	ctx context.Context,
	pm *metadata.PropertyMeta,
	reference interface{},
) (*proxy.Proxy, error) {
	em := pm.JoinMeta
	p, err := c.find(ctx, em, em.New(), em.PrimaryKey(reference))
	if yarpcerrors.IsNotFound(err) {
		log.WithFields(log.Fields{
			"property": pm.String(),
			"target":   em.TypeName,
		}).Debug("join target not found")
		c.metrics.JoinFetch.Inc(1)
		return nil, nil
	}
	if err != nil {
		c.metrics.JoinFetchFail.Inc(1)
		return nil, err
	}
	c.metrics.JoinFetch.Inc(1)
	return p, nil
}

// IncrementCounter implements proxy.Context
func (c *Client) IncrementCounter(
	ctx context.Context,
	em *metadata.EntityMeta,
	entity interface{},
	pm *metadata.PropertyMeta,
	delta int64,
) (err error) {
	defer func() {
		if err != nil {
			c.metrics.CounterIncrFail.Inc(1)
			return
		}
		c.metrics.CounterIncr.Inc(1)
	}()

	pk := em.PrimaryKey(entity)
	var bv *binder.BoundValues
	if em.ClusteredCounter {
		stmt, err := c.generator.ClusteredCounterIncr(em, pm)
		if err != nil {
			return err
		}
		bv, err = c.binder.BindForClusteredCounterIncrementDecrement(stmt, em, pk, delta)
		if err != nil {
			return err
		}
	} else {
		stmt, err := c.generator.SimpleCounterIncr()
		if err != nil {
			return err
		}
		bv, err = c.binder.BindForSimpleCounterIncrementDecrement(stmt, em, pm, pk, delta)
		if err != nil {
			return err
		}
	}
	return c.connector.Execute(ctx, bv, c.policy.WriteLevel(ctx, em))
}

// GetCounter implements proxy.Context. A counter never incremented is 0.
func (c *Client) GetCounter(
	ctx context.Context,
	em *metadata.EntityMeta,
	entity interface{},
	pm *metadata.PropertyMeta,
) (v int64, err error) {
	defer func() {
		if err != nil {
			c.metrics.CounterGetFail.Inc(1)
			return
		}
		c.metrics.CounterGet.Inc(1)
	}()

	pk := em.PrimaryKey(entity)
	column := pm.Name
	var bv *binder.BoundValues
	if em.ClusteredCounter {
		stmt, err := c.generator.ClusteredCounterSelect(em, pm)
		if err != nil {
			return 0, err
		}
		bv, err = c.binder.BindForClusteredCounterSelect(stmt, em, pk)
		if err != nil {
			return 0, err
		}
	} else {
		stmt, err := c.generator.SimpleCounterSelect()
		if err != nil {
			return 0, err
		}
		bv, err = c.binder.BindForSimpleCounterSelect(stmt, em, pm, pk)
		if err != nil {
			return 0, err
		}
		column = statement.CounterValue
	}

	rows, err := c.connector.Query(ctx, bv, c.policy.ReadLevel(ctx, em))
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	decoded, err := c.transcoder.Decode(pm, normalize(rows[0])[column])
	if err != nil {
		return 0, err
	}
	return decoded.(int64), nil
}

// ValidateTables checks the tables of every entity known to the client,
// and the counter table when simple counters are mapped, against the live
// keyspace schema.
func (c *Client) ValidateTables() error {
	ks, err := c.connector.KeyspaceMetadata()
	if err != nil {
		return err
	}
	tables := make(map[string]*gocql.TableMetadata, len(ks.Tables))
	for name, t := range ks.Tables {
		tables[strings.ToLower(name)] = t
	}

	validator := validation.NewTableValidator()
	var errs error
	simpleCounters := false
	for _, t := range c.registry.Types() {
		em, _ := c.registry.Lookup(t)
		errs = multierr.Append(errs,
			validator.ValidateForEntity(em, tables[strings.ToLower(em.TableName)]))
		if !em.ClusteredCounter && len(em.CounterMetas()) > 0 {
			simpleCounters = true
		}
	}
	if simpleCounters {
		errs = multierr.Append(errs, validation.ValidateCounterTable(ks))
	}
	return errs
}
