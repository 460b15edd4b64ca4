// Command catalog-proxy exposes a paginated catalog browser with cross-page
// selection over HTTP. It wires the catalog client, pagination math,
// selection store, and bulk selector together behind a small JSON API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/catalogkit/catalog-client/pkg/client"
	"github.com/catalogkit/catalog-client/pkg/logging"
	"github.com/catalogkit/catalog-client/pkg/pagination"
	"github.com/catalogkit/catalog-client/pkg/selection"
)

func main() {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	})

	catalogURL := getEnv("CATALOG_URL", "http://localhost:9000")
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "catalog-proxy/0.1.0")
	pageSize := getEnvInt("PAGE_SIZE", 12)
	concurrency := getEnvInt("BULK_CONCURRENCY", 3)

	cfg := client.DefaultConfig(catalogURL, userAgent, pageSize)

	// Redis is optional: without it the client runs uncached and ungated.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		cfg.Redis = redisClient
		logger.Info().Str("redis_url", redisURL).Msg("Connected to Redis")
	}

	catalogClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create catalog client")
	}

	store := selection.NewStore()
	bulkCfg := selection.DefaultBulkConfig(pageSize)
	bulkCfg.Concurrency = concurrency
	bulk, err := selection.NewBulkSelector(catalogClient, store, bulkCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create bulk selector")
	}

	srv := &server{
		fetcher:  catalogClient,
		store:    store,
		bulk:     bulk,
		pageSize: pageSize,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /catalog/items", srv.handleItems)
	mux.HandleFunc("POST /selection/toggle", srv.handleToggle)
	mux.HandleFunc("POST /selection/page", srv.handleSelectPage)
	mux.HandleFunc("POST /selection/bulk", srv.handleBulkSelect)
	mux.HandleFunc("GET /selection", srv.handleGetSelection)
	mux.HandleFunc("DELETE /selection", srv.handleClearSelection)

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("catalog_url", catalogURL).
		Int("page_size", pageSize).
		Msg("Starting catalog proxy")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// server holds the wired components behind the HTTP handlers.
type server struct {
	fetcher  *client.Client
	store    *selection.Store
	bulk     *selection.BulkSelector
	pageSize int
	logger   zerolog.Logger

	// lastTotal caches the collection size from the most recent fetch so
	// bulk selection can clamp without an extra round trip.
	lastTotal atomic.Int64
}

// itemsResponse is the browse payload: one clamped page of rows annotated
// with selection flags.
type itemsResponse struct {
	Offset    int             `json:"offset"`
	Page      int             `json:"page"`
	PageCount int             `json:"page_count"`
	Total     int64           `json:"total"`
	Busy      bool            `json:"bulk_busy"`
	Rows      []selection.Row `json:"rows"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) handleItems(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	// Clamp against the last known total before picking the page; a stale
	// total self-corrects on the next fetch.
	state := pagination.State{
		Offset:       offset,
		PageSize:     s.pageSize,
		TotalRecords: s.lastTotal.Load(),
	}
	if state.TotalRecords > 0 {
		state = state.WithTotal(state.TotalRecords)
	}

	page, err := s.fetcher.FetchPage(ctx, state.Page())
	if err != nil {
		s.logger.Warn().Err(err).Int("page", state.Page()).Msg("Page fetch failed")
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.lastTotal.Store(page.TotalRecords)
	state = state.WithTotal(page.TotalRecords)

	writeJSON(w, itemsResponse{
		Offset:    state.Offset,
		Page:      state.Page(),
		PageCount: state.PageCount(),
		Total:     state.TotalRecords,
		Busy:      s.bulk.Busy(),
		Rows:      selection.BindPage(page, s.store),
	})
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}
	selected := r.URL.Query().Get("selected") != "false"

	size := s.store.Toggle(id, selected)
	writeJSON(w, map[string]any{"selected": selected, "size": size})
}

// handleSelectPage applies select-all or deselect-all scoped to the page at
// the given offset. Only identifiers on that page are touched.
func (s *server) handleSelectPage(w http.ResponseWriter, r *http.Request) {
	op := r.URL.Query().Get("op")
	if op != "select" && op != "deselect" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("op must be select or deselect"))
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	page, err := s.fetcher.FetchPage(ctx, pagination.PageForOffset(offset, s.pageSize))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.lastTotal.Store(page.TotalRecords)

	var size int
	if op == "select" {
		size = s.store.SelectPage(page.IDs())
	} else {
		size = s.store.DeselectPage(page.IDs())
	}
	writeJSON(w, map[string]any{"op": op, "size": size})
}

func (s *server) handleBulkSelect(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid count"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	total := s.lastTotal.Load()
	if total == 0 && count > 0 {
		// No fetch has happened yet; learn the collection size first.
		page, err := s.fetcher.FetchPage(ctx, 1)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		total = page.TotalRecords
		s.lastTotal.Store(total)
	}

	size, err := s.bulk.SelectFirst(ctx, count, total)
	if err != nil {
		if err == selection.ErrSuperseded {
			writeJSON(w, map[string]any{"superseded": true, "size": size})
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, map[string]any{"size": size, "busy": s.bulk.Busy()})
}

func (s *server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"size": s.store.Size(),
		"ids":  s.store.IDs(),
		"busy": s.bulk.Busy(),
	})
}

func (s *server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	size := s.store.Clear()
	writeJSON(w, map[string]any{"size": size})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
