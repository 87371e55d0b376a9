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

package metrics

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s *Scope, path string) (int, string) {
	w := httptest.NewRecorder()
	s.Mux.ServeHTTP(w, httptest.NewRequest("GET", "http://localhost"+path, nil))
	body, err := ioutil.ReadAll(w.Result().Body)
	require.NoError(t, err)
	return w.Result().StatusCode, string(body)
}

func TestPrometheusScope(t *testing.T) {
	s, err := InitMetricScope(&Config{
		Prometheus: &PrometheusConfig{Enable: true},
	}, "achilles-test", 10*time.Millisecond)
	require.NoError(t, err)

	s.SubScope("orm").Counter("persist").Inc(2)
	require.NoError(t, s.Close())

	code, body := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "achilles_test_orm_persist 2")

	code, _ = get(t, s, "/health")
	assert.Equal(t, http.StatusOK, code)
}

func TestStatsdScope(t *testing.T) {
	s, err := InitMetricScope(&Config{
		Statsd: &StatsdConfig{Enable: true, Endpoint: "127.0.0.1:8125"},
	}, "achilles", time.Second)
	require.NoError(t, err)
	defer s.Close()

	code, _ := get(t, s, "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestNoopScope(t *testing.T) {
	s, err := InitMetricScope(&Config{}, "achilles", time.Second)
	require.NoError(t, err)
	s.Counter("dropped").Inc(1)
	assert.NoError(t, s.Close())

	s, err = InitMetricScope(nil, "achilles", time.Second)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
