package proxyauth

import (
	"context"
	"fmt"
	"net"

	"github.com/gin-gonic/gin"
)

const signedTokenCookieTTLSeconds = 3600

// TokenExchanger is the Admin API's preview-token endpoint.
type TokenExchanger interface {
	ExchangeSignedPreviewToken(ctx context.Context, token string, port float32) (string, error)
}

// Exchanger trades a signed preview URL token for a sandbox id and mints
// the authenticated cookie bound to it. The token itself is never stored;
// only the resolved sandbox id is encoded into the cookie.
type Exchanger struct {
	API          TokenExchanger
	Codec        *CookieCodec
	CookiePrefix string
	EnableTLS    bool
}

// Resolve exchanges token for a sandbox id, sets the resulting cookie on
// ctx, and returns the sandbox id.
func (e *Exchanger) Resolve(ctx *gin.Context, token string, port float32) (string, error) {
	sandboxID, err := e.API.ExchangeSignedPreviewToken(ctx.Request.Context(), token, port)
	if err != nil {
		return "", fmt.Errorf("failed to get sandbox id: %w. Is the token expired?", err)
	}

	cookieName := e.CookiePrefix + sandboxID
	encoded, err := e.Codec.Encode(cookieName, sandboxID)
	if err != nil {
		return "", fmt.Errorf("failed to encode cookie: %w", err)
	}

	domain := cookieDomain(ctx.Request.Host)
	ctx.SetCookie(cookieName, encoded, signedTokenCookieTTLSeconds, "/", domain, e.EnableTLS, true)

	return sandboxID, nil
}

// cookieDomain derives the cookie's Domain attribute from a request Host
// header, stripping any port.
func cookieDomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
