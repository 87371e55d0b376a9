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
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"
	tallyprom "github.com/uber-go/tally/v4/prometheus"
	tallystatsd "github.com/uber-go/tally/v4/statsd"
)

// Config will be containing the metrics configuration
type Config struct {
	Prometheus *PrometheusConfig `yaml:"prometheus"`
	Statsd     *StatsdConfig     `yaml:"statsd"`
}

// PrometheusConfig enables the /metrics exposition endpoint
type PrometheusConfig struct {
	Enable bool `yaml:"enable"`
}

// StatsdConfig enables pushing metrics to a statsd endpoint
type StatsdConfig struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

// Scope is a root metric scope and the handlers serving it
type Scope struct {
	tally.Scope
	io.Closer
	// Mux serves /metrics when prometheus is enabled, and /health
	Mux *nethttp.ServeMux
}

// InitMetricScope creates the root scope of the reporter enabled in cfg,
// prometheus first, then statsd. Metrics are dropped when none is.
func InitMetricScope(
	cfg *Config,
	rootMetricScope string,
	metricFlushInterval time.Duration,
) (*Scope, error) {
	mux := nethttp.NewServeMux()
	opts := tally.ScopeOptions{
		Prefix:    rootMetricScope,
		Tags:      map[string]string{},
		Separator: tally.DefaultSeparator,
	}

	switch {
	case cfg != nil && cfg.Prometheus != nil && cfg.Prometheus.Enable:
		// prometheus rejects "-" in metric names
		opts.Prefix = strings.Replace(rootMetricScope, "-", "_", -1)
		opts.Separator = tallyprom.DefaultSeparator
		opts.SanitizeOptions = &tallyprom.DefaultSanitizerOpts

		registry := prometheus.NewRegistry()
		opts.CachedReporter = tallyprom.NewReporter(tallyprom.Options{
			Registerer: registry,
		})
		log.Info("Setting up prometheus metrics handler at /metrics")
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	case cfg != nil && cfg.Statsd != nil && cfg.Statsd.Enable:
		log.WithField("endpoint", cfg.Statsd.Endpoint).
			Info("Metrics configured with statsd endpoint")
		c, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
			Address: cfg.Statsd.Endpoint,
		})
		if err != nil {
			return nil, errors.Wrap(err, "unable to setup statsd client")
		}
		opts.Reporter = tallystatsd.NewReporter(c, tallystatsd.Options{})

	default:
		log.Warn("No metrics backends configured, metrics are dropped")
		opts.Reporter = tally.NullStatsReporter
	}

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	scope, closer := tally.NewRootScope(opts, metricFlushInterval)
	return &Scope{Scope: scope, Closer: closer, Mux: mux}, nil
}
