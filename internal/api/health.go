// Copyright (c) 2026 SignOn. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/signon/internal/platform/constants"
	"github.com/taibuivan/signon/internal/platform/postgres"
	"github.com/taibuivan/signon/internal/platform/redis"
	"github.com/taibuivan/signon/internal/platform/respond"
)

// handleHealth is the liveness probe: the process is up and serving.
func handleHealth(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		"status":  "ok",
		"service": constants.AppName,
		"version": constants.AppVersion,
	})
}

// handleReady is the readiness probe: both stores must answer.
func handleReady(pool *pgxpool.Pool, redisClient *goredis.Client) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		checks := map[string]string{
			"postgres": "ok",
			"redis":    "ok",
		}
		healthy := true

		if err := postgres.Ping(request.Context(), pool); err != nil {
			checks["postgres"] = "unreachable"
			healthy = false
		}
		if err := redis.Ping(request.Context(), redisClient); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}

		respond.JSON(writer, status, checks)
	}
}
