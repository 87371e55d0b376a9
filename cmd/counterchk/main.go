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

package main

import (
	"os"
	"time"

	"github.com/mboudraa/Achilles/pkg/common/config"
	"github.com/mboudraa/Achilles/pkg/common/logging"
	"github.com/mboudraa/Achilles/pkg/common/metrics"
	"github.com/mboudraa/Achilles/pkg/storage/connectors/cassandra"
	"github.com/mboudraa/Achilles/pkg/storage/objects/samples"
	"github.com/mboudraa/Achilles/pkg/storage/orm"
	"github.com/mboudraa/Achilles/pkg/storage/validation"

	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	version string
	app     = kingpin.New("counterchk", "Tool to check a keyspace can hold Achilles entities")

	debug = app.Flag(
		"debug", "enable debug mode (log every statement sent)").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	configFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		Required().
		ExistingFiles()

	cassandraHosts = app.Flag(
		"cassandra-hosts", "Cassandra hosts").
		Envar("CASSANDRA_HOSTS").
		Strings()

	cassandraStore = app.Flag(
		"cassandra-store", "Cassandra keyspace").
		Default("").
		Envar("CASSANDRA_STORE").
		String()

	cassandraPort = app.Flag(
		"cassandra-port", "Cassandra port to connect").
		Default("0").
		Envar("CASSANDRA_PORT").
		Int()

	counterTableCmd = app.Command("counter-table",
		"Check the keyspace holds the table of simple counters")
	selfCheckCmd = app.Command("self-check",
		"Check the keyspace holds the tables of the sample entities")
)

func main() {
	app.Version(version)
	app.HelpFlag.Short('h')
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Use stdout here, since the output of counterchk might get parsed
	log.SetOutput(os.Stdout)

	initialLevel := log.InfoLevel
	if *debug {
		initialLevel = log.DebugLevel
	}
	log.SetLevel(initialLevel)
	log.WithField("files", *configFiles).Debug("Loading counterchk config")

	var cfg Config
	if err := config.Parse(&cfg, *configFiles...); err != nil {
		log.WithField("error", err).Fatal("Cannot parse yaml config")
	}

	log.SetFormatter(
		&logging.LogFieldFormatter{
			Formatter: &logging.ArgsRedactingFormatter{
				JSONFormatter: &log.JSONFormatter{},
				Tables:        cfg.Logging.RedactTables,
			},
			Fields: log.Fields{
				"app": app.Name,
			},
		},
	)

	if len(*cassandraHosts) > 0 {
		cfg.Storage.CassandraConn.ContactPoints = *cassandraHosts
	}
	if *cassandraStore != "" {
		cfg.Storage.StoreName = *cassandraStore
	}
	if *cassandraPort != 0 {
		cfg.Storage.CassandraConn.Port = *cassandraPort
	}

	scope, err := metrics.InitMetricScope(&cfg.Metrics, app.Name, time.Second)
	if err != nil {
		log.WithError(err).Fatal("Could not create metric scope")
	}
	defer scope.Close()

	conn, err := cassandra.NewCassandraConnector(&cfg.Storage, scope)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to cassandra")
	}
	defer conn.Close()

	switch cmd {
	case counterTableCmd.FullCommand():
		ks, err := conn.KeyspaceMetadata()
		if err != nil {
			log.WithError(err).Fatal("Could not read keyspace schema")
		}
		if err := validation.ValidateCounterTable(ks); err != nil {
			log.WithError(err).Fatal("Counter table is invalid")
		}

	case selfCheckCmd.FullCommand():
		policy, err := cfg.Storage.Policy()
		if err != nil {
			log.WithError(err).Fatal("Invalid consistency levels")
		}
		client, err := orm.NewClient(conn, policy, scope,
			&samples.UserBean{},
			&samples.CompleteBean{},
			&samples.Tweet{},
			&samples.ConstructedKeyBean{},
			&samples.ClusteredCounterBean{},
		)
		if err != nil {
			log.WithError(err).Fatal("Could not map sample entities")
		}
		if err := client.ValidateTables(); err != nil {
			log.WithError(err).Fatal("Sample tables are invalid")
		}
	}

	log.WithFields(log.Fields{
		"command":  cmd,
		"keyspace": cfg.Storage.StoreName,
	}).Info("Keyspace is valid")
}
