package middleware

import (
	"context"
	"net/http"
	"time"

	"textport/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTCustomClaims carries the tenant binding and role inside access tokens.
type JWTCustomClaims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTConfig builds the echo-jwt configuration. When jwksURL is set the
// keys come from the identity provider's JWKS endpoint (refreshed hourly);
// otherwise the shared HMAC secret is used.
func NewJWTConfig(secret, jwksURL string) (echojwt.Config, error) {
	cfg := echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JWTCustomClaims)
		},
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(*JWTCustomClaims)
			if !ok {
				return
			}

			ctx := c.Request().Context()
			if userID, err := common.ValidateUUID(claims.Subject, "sub"); err == nil {
				ctx = context.WithValue(ctx, common.UserIDKey, userID)
			}
			if tenantID, err := common.ValidateUUID(claims.TenantID, "tenant_id"); err == nil {
				ctx = context.WithValue(ctx, common.TenantIDKey, tenantID)
			}
			c.Set("role", claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}

	if jwksURL != "" {
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			RefreshInterval:  time.Hour,
			RefreshRateLimit: time.Minute,
		})
		if err != nil {
			return cfg, err
		}
		cfg.KeyFunc = jwks.Keyfunc
		return cfg, nil
	}

	cfg.SigningKey = []byte(secret)
	return cfg, nil
}

// RequireAdmin guards the operations endpoints (ingest, carrier override,
// inventory search).
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "Admin role required")
			}
			return next(c)
		}
	}
}
