package proxyauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SandboxLocator resolves a validated sandbox id to the runner domain that
// hosts it. The Daytona API owns individual sandbox placement; the proxy
// only needs a read path into it.
type SandboxLocator interface {
	ResolveRunnerDomain(ctx context.Context, sandboxID string) (string, error)
}

// Handler is the reverse-proxy entry point: authenticate, locate the
// hosting runner, forward.
type Handler struct {
	Resolver *Resolver
	Locator  SandboxLocator
}

// ServeSandbox authenticates the request via Resolver, then forwards it to
// the sandbox's runner. A failed credential is answered with a 307 to the
// auth URL; when the auth URL itself cannot be obtained, the request ends
// with a 500 (or a 502 after a failed runner-domain lookup).
func (h *Handler) ServeSandbox(c *gin.Context) {
	idOrToken := c.Param("idOrToken")
	port, err := strconv.ParseFloat(c.Param("port"), 32)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid port")
		return
	}

	sandboxID, didRedirect, err := h.Resolver.Resolve(c, idOrToken, float32(port))
	if didRedirect {
		log.WithField("idOrToken", idOrToken).WithError(err).Warn("authentication failed, redirected to auth url")
		return
	}
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	domain, err := h.Locator.ResolveRunnerDomain(c.Request.Context(), sandboxID)
	if err != nil {
		log.WithField("sandboxId", sandboxID).WithError(err).Error("failed to resolve runner domain")
		if authURL, aerr := h.Resolver.AuthURL.GetAuthUrl(c.Request.Context(), idOrToken); aerr == nil {
			c.Redirect(http.StatusTemporaryRedirect, authURL)
			return
		}
		c.AbortWithStatus(http.StatusBadGateway)
		return
	}

	target := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", domain, int(port))}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ServeHTTP(c.Writer, c.Request)
}
