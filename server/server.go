// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the geocoders over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/jcodagnone/unigeo/history"
	"github.com/rs/zerolog"
)

// optionPrefix marks query parameters forwarded verbatim to the provider.
const optionPrefix = "opt."

// APIKeyHeader lets a caller bring its own provider key.
const APIKeyHeader = "X-Api-Key"

// KeyResolver returns the key to use for a provider.
type KeyResolver interface {
	Resolve(ctx context.Context, provider, explicit string) (string, error)
}

// Server answers geocoding requests. History is optional.
type Server struct {
	geocoders map[string]geocoding.Geocoder
	keys      KeyResolver
	history   history.Repository
	log       zerolog.Logger
}

// NewServer creates a server. repo may be nil to disable recording.
func NewServer(geocoders []geocoding.Geocoder, keys KeyResolver, repo history.Repository, log zerolog.Logger) *Server {
	byName := make(map[string]geocoding.Geocoder, len(geocoders))
	for _, g := range geocoders {
		byName[g.Name()] = g
	}

	return &Server{
		geocoders: byName,
		keys:      keys,
		history:   repo,
		log:       log,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/api/providers", s.listProviders)
	r.GET("/api/geocode/:provider", s.geocode)
	r.GET("/api/history", s.listHistory)

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")

	return s.Router().Run(addr)
}

// logRequests puts the logger in the request context and logs every request.
func (s *Server) logRequests(ctx *gin.Context) {
	start := time.Now()

	ctx.Request = ctx.Request.WithContext(s.log.WithContext(ctx.Request.Context()))
	ctx.Next()

	s.log.Info().
		Str("method", ctx.Request.Method).
		Str("path", ctx.FullPath()).
		Int("status", ctx.Writer.Status()).
		Dur("took", time.Since(start)).
		Msg("request")
}

func (s *Server) listProviders(ctx *gin.Context) {
	providers := []string{}

	for _, name := range geocoding.Providers() {
		if _, ok := s.geocoders[name]; ok {
			providers = append(providers, name)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"providers": providers})
}

// parseRequest reads the shared inputs and the opt.* options.
func parseRequest(ctx *gin.Context) (*geocoding.Request, error) {
	req := &geocoding.Request{
		Query:    strings.TrimSpace(ctx.Query("q")),
		Language: ctx.Query("language"),
		Country:  ctx.Query("country"),
	}

	if req.Query == "" {
		return nil, errors.New("q query parameter is required")
	}

	if limit := ctx.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return nil, errors.New("invalid limit parameter")
		}

		req.Limit = n
	}

	for key, values := range ctx.Request.URL.Query() {
		name, ok := strings.CutPrefix(key, optionPrefix)
		if !ok || name == "" || len(values) == 0 {
			continue
		}

		if req.Options == nil {
			req.Options = geocoding.Options{}
		}

		req.Options[name] = values[len(values)-1]
	}

	return req, nil
}

func (s *Server) geocode(ctx *gin.Context) {
	provider := ctx.Param("provider")

	g, ok := s.geocoders[provider]
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown provider " + strconv.Quote(provider)})

		return
	}

	req, err := parseRequest(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	reqCtx := ctx.Request.Context()

	req.APIKey, err = s.keys.Resolve(reqCtx, provider, ctx.GetHeader(APIKeyHeader))
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

		return
	}

	start := time.Now()
	results, err := g.Forward(reqCtx, req)
	s.record(reqCtx, history.NewLookup(provider, req, results, err, time.Since(start)))

	if err != nil {
		s.writeForwardError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"provider": provider, "results": results})
}

func (s *Server) writeForwardError(ctx *gin.Context, err error) {
	zerolog.Ctx(ctx.Request.Context()).Warn().Err(err).Msg("forward geocoding failed")

	body := gin.H{"error": err.Error()}

	var geoErr *geocoding.GeocodingError
	if errors.As(err, &geoErr) {
		body["type"] = geoErr.Type.String()
	}

	if code := geocoding.StatusCode(err); code > 0 {
		body["upstream_status"] = code
	}

	ctx.JSON(forwardErrorStatus(err), body)
}

// forwardErrorStatus maps a provider failure to the answer status. Rate
// limits are passed on to the caller; an exhausted quota or rejected key is
// this service being unable to use the provider.
func forwardErrorStatus(err error) int {
	switch {
	case geocoding.IsRateLimitError(err):
		return http.StatusTooManyRequests
	case geocoding.IsQuotaExceededError(err):
		return http.StatusServiceUnavailable
	case geocoding.IsTimeoutError(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// record saves the lookup; failures are logged, the answer is unaffected.
func (s *Server) record(ctx context.Context, lookup *history.Lookup) {
	if s.history == nil {
		return
	}

	if err := s.history.SaveLookup(ctx, lookup); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("recording lookup")
	}
}

func (s *Server) listHistory(ctx *gin.Context) {
	if s.history == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})

		return
	}

	filter := history.Filter{
		Provider: ctx.Query("provider"),
		Query:    ctx.Query("q"),
		Limit:    50,
	}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := ctx.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

				return
			}

			*dst = n
		}
	}

	reqCtx := ctx.Request.Context()

	total, err := s.history.CountLookups(reqCtx, filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	lookups, err := s.history.ListLookups(reqCtx, filter)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if lookups == nil {
		lookups = []*history.Lookup{}
	}

	ctx.JSON(http.StatusOK, gin.H{"total": total, "lookups": lookups})
}
