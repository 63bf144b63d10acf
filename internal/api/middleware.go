package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/kennymark/bossman/internal/access"
	"github.com/kennymark/bossman/internal/auth"
	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/service"
	"github.com/kennymark/bossman/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsContextKey = "claims"

func ZapLoggerMiddleware(l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			req := c.Request()
			res := c.Response()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			reqLogger := l.With(
				zap.String("request_id", requestID),
			)

			ctx := logger.WithLogger(req.Context(), reqLogger)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			latency := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.String("remote_ip", c.RealIP()),
				zap.Int("status", res.Status),
				zap.Duration("latency", latency),
				zap.Int64("bytes_in", req.ContentLength),
				zap.Int64("bytes_out", res.Size),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				reqLogger.Error("request failed", fields...)
			} else {
				reqLogger.Info("request completed", fields...)
			}

			return err
		}
	}
}

// AuthMiddleware verifies the bearer token and requires one of the given
// global roles.
func AuthMiddleware(roles ...model.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse(service.NewError(service.ErrorCodeUnauthorized, "missing bearer token")))
			}

			claims, err := auth.VerifyToken(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse(service.NewError(service.ErrorCodeUnauthorized, "invalid token")))
			}

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				return c.JSON(http.StatusForbidden, errorResponse(service.NewError(service.ErrorCodeForbidden, "insufficient role")))
			}

			c.Set(claimsContextKey, claims)

			return next(c)
		}
	}
}

// PageAccessMiddleware enforces per-page access for global admins. Non-admin
// callers pass through untouched: the gate only ever restricts admins
// further, it never grants access.
//
// Access is re-resolved on every request so membership edits apply on the
// very next request.
func PageAccessMiddleware(resolver service.AccessResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := claimsFromContext(c)
			if !ok || !claims.IsAdmin() {
				return next(c)
			}

			decision, serviceErr := resolver.Resolve(c.Request().Context(), claims.UserID)
			if serviceErr != nil {
				return c.JSON(http.StatusInternalServerError, errorResponse(serviceErr))
			}

			verdict := access.Authorize(true, decision, c.Request().RequestURI)
			switch verdict.Outcome {
			case access.Forbid:
				return c.JSON(http.StatusForbidden, errorResponse(
					service.NewError(service.ErrorCodeForbidden, "You do not have access to this page.")))
			case access.Redirect:
				return c.Redirect(http.StatusFound, verdict.RedirectPath)
			default:
				return next(c)
			}
		}
	}
}

func claimsFromContext(c echo.Context) (*auth.TokenClaims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.TokenClaims)
	return claims, ok
}

func callerFromContext(c echo.Context) (service.Caller, bool) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{ID: claims.UserID, Role: claims.Role}, true
}
