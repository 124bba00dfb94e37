package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/internal/config"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/batch"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/cache"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/client"
	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/regions"
)

// dataDragonVersionsURL lists every released Data Dragon version, newest first.
const dataDragonVersionsURL = "https://ddragon.leagueoflegends.com/api/versions.json"

// selfTester is the slice of the cache store the health probe needs.
type selfTester interface {
	SelfTest(ctx context.Context) error
}

// Server is the gateway's HTTP surface: uniform call-sites over the cache
// orchestrator and the Riot client.
type Server struct {
	cfg    config.Config
	riot   *client.Client
	cache  *cache.Orchestrator
	probe  selfTester
	rdb    *redis.Client
	logger zerolog.Logger
}

// NewServer wires the gateway surface. probe and rdb may be nil in tests;
// the health endpoint then skips the corresponding checks.
func NewServer(cfg config.Config, riot *client.Client, orchestrator *cache.Orchestrator, probe selfTester, rdb *redis.Client, logger zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		riot:   riot,
		cache:  orchestrator,
		probe:  probe,
		rdb:    rdb,
		logger: logger,
	}
}

// Routes returns the gateway mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /lol/summoner/{region}/{name}", s.handleSummoner)
	mux.HandleFunc("GET /lol/league/{region}/{summonerId}", s.handleLeague)
	mux.HandleFunc("GET /lol/matches/{region}/{puuid}", s.handleMatchIDs)
	mux.HandleFunc("GET /lol/matches/{region}/{puuid}/full", s.handleMatchesFull)
	mux.HandleFunc("GET /lol/match/{region}/{id}", s.handleMatch)
	mux.HandleFunc("GET /lol/static/versions", s.handleVersions)
	return mux
}

// forceRefresh reports whether the request asked to bypass the cache.
func forceRefresh(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "true"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.rdb != nil {
		if err := s.rdb.Ping(ctx).Err(); err != nil {
			s.logger.Error().Err(err).Msg("Health check: Redis unreachable")
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	if s.probe != nil {
		if err := s.probe.SelfTest(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Health check: cache self-test failed")
			http.Error(w, "cache self-test failed", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleSummoner(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	name := r.PathValue("name")

	key := cache.NewKey("summoner", region, name).String()
	doc, err := s.cache.Fetch(r.Context(), key, s.cfg.Cache.SummonerTTL, forceRefresh(r), func(ctx context.Context) (json.RawMessage, error) {
		return s.riot.Get(ctx, region, "/lol/summoner/v4/summoners/by-name/"+url.PathEscape(name), false)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, doc)
}

// handleLeague returns ranked league entries. Rank moves quickly, so the TTL
// is short relative to summoner data.
func (s *Server) handleLeague(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	summonerID := r.PathValue("summonerId")

	key := cache.NewKey("league", region, summonerID).String()
	doc, err := s.cache.Fetch(r.Context(), key, s.cfg.Cache.LeagueTTL, forceRefresh(r), func(ctx context.Context) (json.RawMessage, error) {
		return s.riot.Get(ctx, region, "/lol/league/v4/entries/by-summoner/"+url.PathEscape(summonerID), false)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handleMatchIDs(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	puuid := r.PathValue("puuid")

	doc, err := s.fetchMatchIDs(r.Context(), region, puuid, forceRefresh(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	id := r.PathValue("id")

	doc, err := s.fetchMatch(r.Context(), region, id, forceRefresh(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, doc)
}

// handleMatchesFull resolves the match-ID list for a player and batch-fetches
// every match document behind it. Individual match failures are dropped from
// the response; the ID list error is fatal.
func (s *Server) handleMatchesFull(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	puuid := r.PathValue("puuid")

	idsDoc, err := s.fetchMatchIDs(r.Context(), region, puuid, forceRefresh(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var ids []string
	if err := json.Unmarshal(idsDoc, &ids); err != nil {
		s.writeError(w, err)
		return
	}

	fetcher := batch.NewFetcher(&matchDocumentFetcher{server: s, region: region}, batch.DefaultConfig())
	docs, _ := fetcher.FetchAll(r.Context(), ids)

	ordered := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		if doc, ok := docs[id]; ok {
			ordered = append(ordered, doc)
		}
	}
	payload, err := json.Marshal(ordered)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, payload)
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	key := cache.NewKey("static", "versions").String()
	doc, err := s.cache.Fetch(r.Context(), key, s.cfg.Cache.StaticTTL, forceRefresh(r), func(ctx context.Context) (json.RawMessage, error) {
		return s.riot.GetURL(ctx, dataDragonVersionsURL)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) fetchMatchIDs(ctx context.Context, region, puuid string, force bool) (json.RawMessage, error) {
	key := cache.NewKey("match-ids", region, puuid).String()
	return s.cache.Fetch(ctx, key, s.cfg.Cache.MatchIDsTTL, force, func(ctx context.Context) (json.RawMessage, error) {
		return s.riot.Get(ctx, region, "/lol/match/v5/matches/by-puuid/"+url.PathEscape(puuid)+"/ids", true)
	})
}

// fetchMatch retrieves one immutable match document via the dual-layer path,
// partitioned by routing region the same way match data lives upstream.
func (s *Server) fetchMatch(ctx context.Context, region, id string, force bool) (json.RawMessage, error) {
	partition, err := regions.Routing(region)
	if err != nil {
		return nil, &client.Error{Kind: client.KindUnsupportedRegion, StatusCode: http.StatusBadRequest, Message: err.Error(), Err: err}
	}

	key := cache.NewKey("match", partition, id).String()
	return s.cache.FetchImmutable(ctx, key, partition, id, s.cfg.Cache.MatchTTL, force, func(ctx context.Context) (json.RawMessage, error) {
		return s.riot.Get(ctx, region, "/lol/match/v5/matches/"+url.PathEscape(id), true)
	})
}

// matchDocumentFetcher adapts the match call-site to the batch fetcher.
type matchDocumentFetcher struct {
	server *Server
	region string
}

func (f *matchDocumentFetcher) FetchDocument(ctx context.Context, id string) (json.RawMessage, error) {
	return f.server.fetchMatch(ctx, f.region, id, false)
}

func writeJSON(w http.ResponseWriter, doc json.RawMessage) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// writeError renders a taxonomy error: kind-mapped status code, Retry-After
// where the kind carries one, upstream message preserved.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	apiErr := client.Classify(err)

	s.logger.Warn().
		Str("kind", string(apiErr.Kind)).
		Int("status", apiErr.HTTPStatus()).
		Str("message", apiErr.Message).
		Msg("Request failed")

	if apiErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]string{
		"error":   string(apiErr.Kind),
		"message": apiErr.Message,
	})
}
