// Command runner-manager reconciles the Daytona runner fleet against
// Kubernetes node inventory, sizing a pool of placeholder pods that drive
// the cluster autoscaler up or down.
package main

import (
	"context"
	"expvar"
	"os"
	"os/signal"
	"syscall"

	"github.com/daytonaio/runner-fleet/internal/fleet"
	"github.com/daytonaio/runner-fleet/internal/fleet/adminclient"
	"github.com/daytonaio/runner-fleet/internal/httpmiddleware"
	"github.com/daytonaio/runner-fleet/internal/k8s"

	"github.com/gin-gonic/gin"
)

func main() {
	log := fleet.Logger()
	log.Info().Msg("starting runner-manager")

	cfg, err := fleet.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	clientset, _, err := k8s.NewClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize kubernetes client")
	}

	admin := adminclient.New(cfg.DaytonaAPIURL, cfg.DaytonaAPIKey)

	collector := &fleet.Collector{
		Runners:           admin,
		K8s:               clientset,
		RegionID:          cfg.RegionID,
		ProviderNamespace: cfg.ProviderNamespace,
		PlaceholderLabel:  cfg.Policy.PlaceholderLabel,
		NodeSelectorKey:   cfg.Policy.NodeSelectorKey,
	}
	placeholder := &fleet.PlaceholderManager{
		K8s:       clientset,
		Namespace: cfg.ProviderNamespace,
		Policy:    cfg.Policy,
	}
	controller := fleet.NewController(collector, placeholder, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go controller.Run(ctx)

	router := gin.New()
	router.Use(gin.Recovery(), httpmiddleware.RequestID())
	router.GET("/healthz", func(c *gin.Context) {
		c.String(200, "OK")
	})
	router.GET("/metrics", gin.WrapH(expvar.Handler()))

	log.Info().Str("port", cfg.APIPort).Msg("health check server listening")
	if err := router.Run(":" + cfg.APIPort); err != nil {
		log.Fatal().Err(err).Msg("health check server stopped")
	}
}
