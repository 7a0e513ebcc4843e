// Command preview-proxy is the sandbox preview reverse-proxy: it resolves
// a path token plus a client credential into a validated sandbox id,
// issues a short-lived cookie, and forwards authenticated requests
// upstream to the sandbox's runner.
package main

import (
	"github.com/daytonaio/runner-fleet/internal/httpmiddleware"
	"github.com/daytonaio/runner-fleet/internal/proxyauth"
	"github.com/daytonaio/runner-fleet/internal/proxyauth/apiclient"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := proxyauth.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	api := apiclient.New(cfg.DaytonaAPIURL, cfg.DaytonaAPIKey)
	codec := proxyauth.NewCookieCodec(cfg.CookieHashKey, cfg.CookieBlockKey)

	resolver := &proxyauth.Resolver{
		Bearer:  api,
		AuthKey: api,
		Exchanger: &proxyauth.Exchanger{
			API:          api,
			Codec:        codec,
			CookiePrefix: cfg.AuthCookiePrefix,
			EnableTLS:    cfg.EnableTLS,
		},
		AuthURL:           api,
		Codec:             codec,
		AuthKeyHeader:     cfg.AuthKeyHeader,
		AuthKeyQueryParam: cfg.AuthKeyQueryParam,
		CookiePrefix:      cfg.AuthCookiePrefix,
	}

	handler := &proxyauth.Handler{
		Resolver: resolver,
		Locator:  api,
	}

	router := gin.New()
	router.Use(gin.Recovery(), httpmiddleware.RequestID())
	router.Any("/sandboxes/:idOrToken/:port/*proxyPath", handler.ServeSandbox)

	log.WithField("port", cfg.ListenPort).Info("preview-proxy listening")
	if err := router.Run(":" + cfg.ListenPort); err != nil {
		log.WithError(err).Fatal("listen failed")
	}
}
