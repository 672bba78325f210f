package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/channel"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/client"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/credential"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/events"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/logging"
	"github.com/Syed-afsha/crowd-dashboard-sdk/pkg/tenant"
)

func main() {
	// Configuration from environment
	upstreamURL := getEnv("UPSTREAM_URL", "http://localhost:9000")
	pushURL := getEnv("PUSH_URL", "ws://localhost:9001/events")
	port := getEnv("PORT", "8080")
	site := getEnv("SITE_ID", "default")
	token := getEnv("API_TOKEN", "")
	logLevel := getEnv("LOG_LEVEL", "info")

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: getEnv("LOG_PRETTY", "") != "",
	})

	creds := credential.Static{TokenValue: token}
	selector := tenant.NewSelector(site)

	// Caching request pipeline
	cfg := client.DefaultConfig(client.NewHTTPTransport(upstreamURL))
	cfg.Credentials = creds
	apiClient, err := client.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create API client")
	}
	apiClient.BindTenantSelector(selector)

	// Push event channel + multiplexer
	ch, err := channel.New(channel.Config{
		URL:         pushURL,
		Credentials: creds,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push channel")
	}
	mux := events.New(ch)

	ctx := context.Background()
	if err := ch.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Push channel not started")
	} else {
		for _, event := range []string{"occupancy.update", "alert.raised"} {
			mux.Subscribe(event, func(envelope channel.Envelope) {
				log.Info().
					Str("event", envelope.Event).
					Str("tenant", envelope.Tenant).
					RawJSON("data", envelope.Data).
					Msg("Push event received")
			})
		}
	}
	defer ch.Disconnect()

	// HTTP Server
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/ready", readyHandler(ch))
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/api/", apiProxyHandler(apiClient, selector))

	addr := ":" + port
	log.Info().Str("addr", addr).Str("upstream", upstreamURL).Msg("Starting dashboard proxy")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports readiness based on push channel health. The proxy
// still serves API requests while the channel is down, so this is a
// degraded-but-alive signal, not a liveness gate.
func readyHandler(ch *channel.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ch.IsHealthy() {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, "ready")
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "push channel %s", ch.State())
	}
}

// apiProxyHandler forwards dashboard API requests through the caching
// pipeline. The active tenant may be switched per request with the
// X-Site-ID header.
func apiProxyHandler(apiClient *client.Client, selector *tenant.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if site := r.Header.Get("X-Site-ID"); site != "" {
			selector.Switch(site)
		}

		params := make(map[string]string)
		for key, values := range r.URL.Query() {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		body, err := apiClient.Execute(ctx, client.Request{
			Method:   r.Method,
			Endpoint: r.URL.Path,
			TenantID: selector.Current(),
			Params:   params,
		})
		if err != nil {
			var terr *client.TransportError
			if errors.As(err, &terr) && terr.StatusCode > 0 {
				http.Error(w, terr.Error(), terr.StatusCode)
				return
			}
			http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			log.Warn().Err(err).Msg("Failed to write response")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
