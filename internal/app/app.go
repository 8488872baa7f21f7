// Package app wires configuration, logging, the collision map, the hub, and
// the HTTP listener into a running server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	server "fog-and-fang/server"
	"fog-and-fang/server/internal/config"
	"fog-and-fang/server/internal/logger"
	"fog-and-fang/server/internal/mapdata"
	servernet "fog-and-fang/server/internal/net"
)

// Run starts the server and blocks until the listener fails or the context
// is canceled. Map load and bind failures abort startup.
func Run(ctx context.Context) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Logging)

	cmap := mapdata.Default()
	if cfg.MapPath != "" {
		cmap, err = mapdata.Load(cfg.MapPath)
		if err != nil {
			return fmt.Errorf("load map: %w", err)
		}
	}
	log.Info("collision map loaded",
		"zones", len(cmap.ZoneNames()),
		"finalZone", cmap.FinalZone(),
	)

	hubCfg := server.DefaultHubConfig()
	hubCfg.TickRate = cfg.Game.TickRate
	hubCfg.MonsterCap = cfg.Game.MonsterCap
	hubCfg.SpawnBatch = cfg.Game.SpawnBatch
	hubCfg.FogInterval = cfg.Game.FogInterval
	hubCfg.FogDamage = cfg.Game.FogDamage
	hubCfg.FogRegen = cfg.Game.FogRegen
	hubCfg.Seed = cfg.RandSeed
	hubCfg.Logger = log

	hub := server.NewHub(cmap, hubCfg)
	stop := make(chan struct{})
	go hub.RunGameLoop(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{Logger: log})
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	log.Info("server listening", "addr", srv.Addr, "tickRate", cfg.Game.TickRate)

	select {
	case <-ctx.Done():
		srv.Close()
		return ctx.Err()
	case err := <-errs:
		return fmt.Errorf("server failed: %w", err)
	}
}
