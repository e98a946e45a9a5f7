package main

import (
	"context"
	"flag"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/veilpay/wallet-core/src/common"
	"github.com/veilpay/wallet-core/src/ledger"
	"github.com/veilpay/wallet-core/src/orchestrator"
	"github.com/veilpay/wallet-core/src/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type daemonConfig struct {
	common.CommonConfig `yaml:",inline"`

	PruneInterval  time.Duration `yaml:"prune_interval"`
	RetentionHours int           `yaml:"retention_hours"`
	LogFile        string        `yaml:"log_file"`
}

func main() {
	pwd, _ := os.Getwd()
	fullPath := path.Join(pwd, "config.yaml")
	log.Printf("loading config @ `%s`", fullPath)
	rawCfg, err := ioutil.ReadFile(fullPath)
	if err != nil {
		log.Printf("config file not found: %s", err)
		os.Exit(1)
	}
	cfg := daemonConfig{
		PruneInterval:  5 * time.Minute,
		RetentionHours: 24 * 30,
		LogFile:        "activityd.log",
	}
	if err := yaml.Unmarshal(rawCfg, &cfg); err != nil {
		log.Printf("failed parsing config file: %s", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.PostgresConfig, "pg", cfg.PostgresConfig, `config string for the postgres connection"`)
	flag.StringVar(&cfg.PromPort, "prom", cfg.PromPort, "address to serve prom stats, default `:2112`")
	flag.StringVar(&cfg.HealthCheckPort, "hcp", cfg.HealthCheckPort, `(rarely used) if defined will expose a health check on /readyz, default ""`)
	flag.IntVar(&cfg.RetentionHours, "retention", cfg.RetentionHours, `hours to keep failed activity records"`)
	flag.Parse()

	log.Println("----------------------------------")
	log.Printf("initializing activityd")
	log.Printf("\tprom:          %s", cfg.PromPort)
	log.Printf("\thealth check:  %s", cfg.HealthCheckPort)
	log.Printf("\tschema:        v%d", storage.SchemaVersion)
	log.Printf("\tretention:     %dh", cfg.RetentionHours)
	log.Println("----------------------------------")

	storage.Configure(cfg.PostgresConfig)

	logger, logCleanup, err := common.ConfigureZapWithFile(zap.InfoLevel, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer logCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open performs the destructive cleanup of stores left behind by
	// earlier schema versions.
	store, err := storage.Open(ctx)
	if err != nil {
		panic(errors.Wrap(err, "failed opening local store"))
	}
	activity := ledger.New(store, logger)

	if cfg.PromPort != "" {
		orchestrator.StartPromServer(logger, cfg.PromPort)
	}
	if cfg.HealthCheckPort != "" {
		go beginReadyzHandler(cfg)
	}

	ledger.StartPruner(ctx, activity, time.Duration(cfg.RetentionHours)*time.Hour, cfg.PruneInterval, logger)
}

func beginReadyzHandler(cfg daemonConfig) {
	http.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		pg, err := storage.GetConnection(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(errors.Wrap(err, "failed pinging postgres").Error()))
			return
		}
		defer pg.Close(r.Context())
		if err := pg.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(errors.Wrap(err, "failed pinging postgres").Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	http.ListenAndServe(cfg.HealthCheckPort, nil)
}
