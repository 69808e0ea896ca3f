// Package server provides the HTTP REST API for the bid extraction service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmarsh/bidflow/internal/db"
	"github.com/dmarsh/bidflow/internal/extraction"
	"github.com/dmarsh/bidflow/internal/llm"
	"github.com/dmarsh/bidflow/internal/server/ratelimit"
	"github.com/dmarsh/bidflow/internal/types"
)

// Extractor runs the document extraction pipeline for an uploaded bid.
type Extractor interface {
	Extract(ctx context.Context, doc types.RawDocument, ownerID string) types.BidExtractionResult
}

// BidStore is the persistence surface the handlers depend on. *db.DB
// satisfies it.
type BidStore interface {
	CreateBid(ctx context.Context, ownerID, filename, mimeType string) (uuid.UUID, error)
	SaveExtraction(ctx context.Context, bidID uuid.UUID, result *types.BidExtractionResult) error
	UpdateExtraction(ctx context.Context, bidID uuid.UUID, ownerID string, result *types.BidExtractionResult) error
	UpdateStatus(ctx context.Context, bidID uuid.UUID, ownerID, status string) error
	GetBid(ctx context.Context, bidID uuid.UUID, ownerID string) (*db.Bid, error)
	ListBids(ctx context.Context, ownerID string, filters db.BidFilters) ([]db.BidSummary, error)
	DeleteBid(ctx context.Context, bidID uuid.UUID, ownerID string) error

	CreatePricesheetItem(ctx context.Context, ownerID, name string, price float64, category string) (uuid.UUID, error)
	UpdatePricesheetItem(ctx context.Context, itemID uuid.UUID, ownerID, name string, price float64, category string) error
	DeletePricesheetItem(ctx context.Context, itemID uuid.UUID, ownerID string) error
	GetPricesheetItem(ctx context.Context, itemID uuid.UUID, ownerID string) (*types.PriceCatalogEntry, error)
	CatalogForOwner(ctx context.Context, ownerID string) ([]types.PriceCatalogEntry, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       BidStore
	extractor   Extractor
	validate    *validator.Validate
	rateLimiter *ratelimit.Limiter
	closeDB     func()
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string
}

// New creates a new server instance
func New(ctx context.Context, cfg Config) (*Server, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	extractor := extraction.NewOrchestrator(client,
		extraction.WithCatalogSource(database),
	)

	s := newServer(database, extractor)
	s.closeDB = database.Close
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for extraction runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// newServer wires handlers against a store and an extractor. Split out from
// New so tests can inject fakes without a database or API key.
func newServer(store BidStore, extractor Extractor) *Server {
	return &Server{
		store:       store,
		extractor:   extractor,
		validate:    validator.New(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Bid document endpoints
	mux.HandleFunc("POST /bids", s.handleUploadBid)
	mux.HandleFunc("GET /bids", s.handleListBids)
	mux.HandleFunc("GET /bids/{id}", s.handleGetBid)
	mux.HandleFunc("DELETE /bids/{id}", s.handleDeleteBid)

	// Demolition item endpoints
	mux.HandleFunc("GET /bids/{id}/items", s.handleListItems)
	mux.HandleFunc("PUT /bids/{id}/items/{item_id}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /bids/{id}/items/{item_id}", s.handleDeactivateItem)

	// Price catalog endpoints
	mux.HandleFunc("GET /pricesheet", s.handleListPricesheet)
	mux.HandleFunc("POST /pricesheet", s.handleCreatePricesheetItem)
	mux.HandleFunc("PUT /pricesheet/{id}", s.handleUpdatePricesheetItem)
	mux.HandleFunc("DELETE /pricesheet/{id}", s.handleDeletePricesheetItem)

	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if s.closeDB != nil {
		s.closeDB()
	}
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Owner-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// ownerID extracts the owner identity from the request. Every routed
// resource is scoped to an owner; a missing header is a client error.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get("X-Owner-ID")
	if owner == "" {
		s.errorResponse(w, http.StatusBadRequest, "X-Owner-ID header is required")
		return "", false
	}
	return owner, true
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
