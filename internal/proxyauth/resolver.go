package proxyauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// BearerValidator checks whether a bearer token authorizes a sandbox id.
type BearerValidator interface {
	ValidateBearerForSandbox(ctx context.Context, sandboxID, bearer string) (bool, error)
}

// AuthKeyValidator checks whether an auth key authorizes a sandbox id.
type AuthKeyValidator interface {
	ValidateAuthKeyForSandbox(ctx context.Context, sandboxID, authKey string) (bool, error)
}

// AuthURLProvider derives the upstream URL to redirect unauthenticated
// clients to.
type AuthURLProvider interface {
	GetAuthUrl(ctx context.Context, sandboxIDOrToken string) (string, error)
}

// Resolver tries each credential in a fixed order: bearer, auth-key
// header, auth-key query parameter, cookie, then signed preview-token
// exchange. Each attempt is independent and non-fatal; on total failure it
// redirects to the auth URL with an aggregated reason.
type Resolver struct {
	Bearer            BearerValidator
	AuthKey           AuthKeyValidator
	Exchanger         *Exchanger
	AuthURL           AuthURLProvider
	Codec             *CookieCodec
	AuthKeyHeader     string
	AuthKeyQueryParam string
	CookiePrefix      string
}

// Resolve runs the full attempt order against one request and returns the
// validated sandbox id. didRedirect is true iff every attempt failed and a
// 307 redirect to the auth URL was issued.
func (r *Resolver) Resolve(ctx *gin.Context, idOrToken string, port float32) (sandboxID string, didRedirect bool, err error) {
	var reasons []string
	attempted := false

	// The auth-key header is never forwarded upstream, whichever attempt
	// (if any) succeeds.
	defer ctx.Request.Header.Del(r.AuthKeyHeader)

	if out := r.tryBearer(ctx, idOrToken); out.Kind != OutcomeSkipped {
		attempted = true
		if out.Kind == OutcomeSuccess {
			return out.SandboxID, false, nil
		}
		reasons = append(reasons, out.Reason)
	}

	if out := r.tryAuthKeyHeader(ctx, idOrToken); out.Kind != OutcomeSkipped {
		attempted = true
		if out.Kind == OutcomeSuccess {
			return out.SandboxID, false, nil
		}
		reasons = append(reasons, out.Reason)
	}

	if out := r.tryAuthKeyQuery(ctx, idOrToken); out.Kind != OutcomeSkipped {
		attempted = true
		if out.Kind == OutcomeSuccess {
			return out.SandboxID, false, nil
		}
		reasons = append(reasons, out.Reason)
	}

	if out := r.tryCookie(ctx, idOrToken); out.Kind != OutcomeSkipped {
		attempted = true
		if out.Kind == OutcomeSuccess {
			return out.SandboxID, false, nil
		}
		reasons = append(reasons, out.Reason)
	}

	if out := r.tryTokenExchange(ctx, idOrToken, port); out.Kind != OutcomeSkipped {
		attempted = true
		if out.Kind == OutcomeSuccess {
			return out.SandboxID, false, nil
		}
		reasons = append(reasons, out.Reason)
	}

	authURL, urlErr := r.AuthURL.GetAuthUrl(ctx.Request.Context(), idOrToken)
	if urlErr != nil {
		return idOrToken, false, fmt.Errorf("failed to get auth URL: %w", urlErr)
	}
	ctx.Redirect(http.StatusTemporaryRedirect, authURL)

	var msg string
	if attempted && len(reasons) > 0 {
		msg = fmt.Sprintf("authentication failed:\n%s", strings.Join(reasons, "\n;\n"))
	} else {
		msg = "missing authentication: provide a preview access token (via header, query parameter, or cookie) or use an API key or JWT"
	}
	return idOrToken, true, errors.New(msg)
}

func (r *Resolver) tryBearer(ctx *gin.Context, idOrToken string) AttemptOutcome {
	authHeader := ctx.Request.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return skipped()
	}
	bearer := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	start := time.Now()
	valid, err := r.Bearer.ValidateBearerForSandbox(ctx.Request.Context(), idOrToken, bearer)
	duration := time.Since(start)

	entry := log.WithField("sandboxId", idOrToken).WithField("duration", duration)
	if err != nil {
		entry.WithError(err).Error("bearer token validation failed")
		return failed(fmt.Sprintf("bearer token validation error: %v", err))
	}
	if valid {
		entry.Info("bearer token validation successful")
		return success(idOrToken)
	}
	entry.Warn("bearer token is invalid")
	return invalid("bearer token is invalid")
}

func (r *Resolver) tryAuthKeyHeader(ctx *gin.Context, idOrToken string) AttemptOutcome {
	authKey := ctx.Request.Header.Get(r.AuthKeyHeader)
	if authKey == "" {
		return skipped()
	}
	ctx.Request.Header.Del(r.AuthKeyHeader)

	start := time.Now()
	valid, err := r.AuthKey.ValidateAuthKeyForSandbox(ctx.Request.Context(), idOrToken, authKey)
	duration := time.Since(start)

	entry := log.WithField("sandboxId", idOrToken).WithField("duration", duration)
	if err != nil {
		entry.WithError(err).Error("auth key header validation failed")
		return failed(fmt.Sprintf("auth key header validation error: %v", err))
	}
	if valid {
		entry.Info("auth key header validation successful")
		return success(idOrToken)
	}
	entry.Warn("auth key from header is invalid")
	return invalid("auth key header is invalid")
}

func (r *Resolver) tryAuthKeyQuery(ctx *gin.Context, idOrToken string) AttemptOutcome {
	queryAuthKey := ctx.Query(r.AuthKeyQueryParam)
	if queryAuthKey == "" {
		return skipped()
	}

	start := time.Now()
	valid, err := r.AuthKey.ValidateAuthKeyForSandbox(ctx.Request.Context(), idOrToken, queryAuthKey)
	duration := time.Since(start)

	entry := log.WithField("sandboxId", idOrToken).WithField("duration", duration)
	if err != nil {
		entry.WithError(err).Error("auth key query param validation failed")
		return failed(fmt.Sprintf("auth key query param validation error: %v", err))
	}
	if valid {
		entry.Info("auth key query param validation successful")
		newQuery := ctx.Request.URL.Query()
		newQuery.Del(r.AuthKeyQueryParam)
		ctx.Request.URL.RawQuery = newQuery.Encode()
		return success(idOrToken)
	}
	entry.Warn("auth key from query param is invalid")
	return invalid("auth key query parameter is invalid")
}

func (r *Resolver) tryCookie(ctx *gin.Context, idOrToken string) AttemptOutcome {
	cookieName := r.CookiePrefix + idOrToken
	cookieValue, err := ctx.Cookie(cookieName)
	if err != nil || cookieValue == "" {
		return skipped()
	}

	start := time.Now()
	decoded, err := r.Codec.Decode(cookieName, cookieValue)
	duration := time.Since(start)

	entry := log.WithField("sandboxId", idOrToken).WithField("duration", duration)
	if err != nil {
		// A cookie that fails integrity checking is an invalid credential,
		// not a validator outage.
		entry.WithError(err).Error("cookie decoding failed")
		return invalid(fmt.Sprintf("cookie decoding error: %v", err))
	}
	if decoded == idOrToken {
		entry.Info("cookie auth successful")
		return success(idOrToken)
	}
	entry.Warn("decoded cookie value does not match sandbox id")
	return invalid("cookie does not match sandbox id")
}

func (r *Resolver) tryTokenExchange(ctx *gin.Context, idOrToken string, port float32) AttemptOutcome {
	start := time.Now()
	sandboxID, err := r.Exchanger.Resolve(ctx, idOrToken, port)
	duration := time.Since(start)

	entry := log.WithField("sandboxIdOrToken", idOrToken).WithField("duration", duration)
	if err != nil {
		entry.WithError(err).Error("signed preview URL token validation failed")
		return failed(err.Error())
	}
	entry.WithField("sandboxId", sandboxID).Info("signed preview URL token validation successful")
	return success(sandboxID)
}
