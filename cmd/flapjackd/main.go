// Command flapjackd runs the flapjack search service: the Algolia-compatible
// HTTP surface over the search core, backed by OpenSearch when configured
// and the in-memory reference index otherwise.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/threatwinds/go-sdk/catcher"

	"github.com/flapjackhq/flapjack/config"
	"github.com/flapjackhq/flapjack/filter"
	"github.com/flapjackhq/flapjack/httpapi"
	"github.com/flapjackhq/flapjack/ingest"
	"github.com/flapjackhq/flapjack/keystore"
	"github.com/flapjackhq/flapjack/orchestrator"
	"github.com/flapjackhq/flapjack/osindex"
	"github.com/flapjackhq/flapjack/searchindex"
	"github.com/flapjackhq/flapjack/settingsstore"
)

func main() {
	v := config.NewViper()

	root := &cobra.Command{
		Use:          "flapjackd",
		Short:        "flapjack search service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config.FromViper(v))
		},
	}

	flags := root.Flags()
	flags.String("data-dir", "./data", "data directory for settings and keys")
	flags.String("bind-addr", ":7700", "listen address")
	flags.String("admin-key", "", "master api key")
	flags.String("env", "development", "environment mode (production requires an admin key)")
	flags.Int("max-batch-size", 10_000, "maximum operations per batch")

	_ = v.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir"))
	_ = v.BindPFlag(config.KeyBindAddr, flags.Lookup("bind-addr"))
	_ = v.BindPFlag(config.KeyAdminKey, flags.Lookup("admin-key"))
	_ = v.BindPFlag(config.KeyEnv, flags.Lookup("env"))
	_ = v.BindPFlag(config.KeyMaxBatchSize, flags.Lookup("max-batch-size"))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	// Exit code 1 on a missing or short admin key in production.
	if err := keystore.ValidateProductionAdminKey(cfg.Env, cfg.AdminKey); err != nil {
		return err
	}

	if cfg.GeoIPDB == "" {
		catcher.Info("no geoip database configured; aroundLatLngViaIP is a no-op", nil)
	}

	settings, err := settingsstore.New(cfg.DataDir)
	if err != nil {
		return err
	}

	var index searchindex.Index
	if len(cfg.OpenSearchNodes) > 0 {
		osIdx, err := osindex.New(osindex.Config{
			Nodes:              cfg.OpenSearchNodes,
			User:               cfg.OpenSearchUser,
			Password:           cfg.OpenSearchPassword,
			InsecureSkipVerify: cfg.OpenSearchInsecure,
		}, settings)
		if err != nil {
			return err
		}
		defer osIdx.Close()
		index = osIdx
	} else {
		catcher.Info("no OpenSearch nodes configured; using the in-memory index", nil)
		index = searchindex.NewMemoryIndex()
	}

	var keys keystore.Store
	if cfg.RedisAddr != "" {
		keys = keystore.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), "flapjack")
	} else {
		fileKeys, err := keystore.NewFileStore(filepath.Join(cfg.DataDir, "keys.yaml"))
		if err != nil {
			return err
		}
		keys = fileKeys
	}

	orc := orchestrator.New(index)
	orc.FilterCache = filter.NewCache(1024, 0)

	ing := ingest.New(index)
	ing.MaxBatchSize = cfg.MaxBatchSize

	server := httpapi.New(orc, ing, index, settings, keys, cfg.AdminKey)

	catcher.Info("flapjackd listening", map[string]any{"addr": cfg.BindAddr, "env": cfg.Env})
	return server.Run(cfg.BindAddr)
}
