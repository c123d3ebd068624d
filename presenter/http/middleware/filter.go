package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/poanetwork/escrow-monitor/config"
	"github.com/poanetwork/escrow-monitor/entity"
	"github.com/poanetwork/escrow-monitor/monitor/alerts"
	"github.com/poanetwork/escrow-monitor/presenter/http/render"
)

type ctxKey int

const (
	routeCfgCtxKey ctxKey = iota
	txHashCtxKey
	findingsFilterCtxKey
)

const maxFindingsLimit = 1000

func GetRouteConfigMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			routeID := chi.URLParam(r, "routeID")

			for _, routeCfg := range cfg.Routes {
				if routeCfg.ID == routeID {
					ctx := context.WithValue(r.Context(), routeCfgCtxKey, routeCfg)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			render.Message(w, r, http.StatusNotFound, fmt.Sprintf("route with id %s not found", routeID))
		})
	}
}

func RouteConfig(ctx context.Context) *config.RouteConfig {
	if cfg, ok := ctx.Value(routeCfgCtxKey).(*config.RouteConfig); ok {
		return cfg
	}
	return new(config.RouteConfig)
}

func GetTxHashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txHash := chi.URLParam(r, "txHash")

		if txHash == "" {
			txHash = r.URL.Query().Get("txHash")
			if txHash == "" {
				render.Message(w, r, http.StatusBadRequest, "txHash is required")
				return
			}
		}

		ctx := context.WithValue(r.Context(), txHashCtxKey, common.HexToHash(txHash))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TxHash(ctx context.Context) common.Hash {
	if txHash, ok := ctx.Value(txHashCtxKey).(common.Hash); ok {
		return txHash
	}
	return common.Hash{}
}

// GetFindingsFilterMiddleware parses alert_id, route_id, severity, since and limit query parameters.
func GetFindingsFilterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := &entity.FindingsFilter{
			AlertID:  query.Get("alert_id"),
			RouteID:  query.Get("route_id"),
			Severity: query.Get("severity"),
		}

		switch alerts.Severity(filter.Severity) {
		case "", alerts.SeverityInfo, alerts.SeverityCritical:
		default:
			render.Message(w, r, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", filter.Severity))
			return
		}

		if limitStr := query.Get("limit"); limitStr != "" {
			limit, err := strconv.ParseUint(limitStr, 10, 32)
			if err != nil || limit == 0 || limit > maxFindingsLimit {
				render.Message(w, r, http.StatusBadRequest, fmt.Sprintf("limit should be a number in range [1, %d]", maxFindingsLimit))
				return
			}
			filter.Limit = limit
		}

		if sinceStr := query.Get("since"); sinceStr != "" {
			since, err := parseSince(sinceStr)
			if err != nil {
				render.Message(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse since: %s", err))
				return
			}
			filter.Since = &since
		}

		ctx := context.WithValue(r.Context(), findingsFilterCtxKey, filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseSince accepts either an RFC3339 timestamp or a duration relative to now.
func parseSince(s string) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Parse(time.RFC3339, s)
}

func FindingsFilter(ctx context.Context) *entity.FindingsFilter {
	if filter, ok := ctx.Value(findingsFilterCtxKey).(*entity.FindingsFilter); ok {
		return filter
	}
	return new(entity.FindingsFilter)
}
