package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"blackjack-lite/agent"
	"blackjack-lite/apps/server/internal/auth"
	"blackjack-lite/apps/server/internal/gateway"
	"blackjack-lite/apps/server/internal/ledger"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/policystore"
	"blackjack-lite/strategy"
)

func main() {
	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init auth service: %v", err)
	}
	defer authService.Close()

	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv(authMode)
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	policies, policyMode, err := policystore.NewStoreFromEnv()
	if err != nil {
		log.Fatalf("[Server] Failed to init policy store: %v", err)
	}
	defer policies.Close()
	if err := policystore.ImportFromEnv(context.Background(), policies); err != nil {
		log.Fatalf("[Server] Failed to import policy: %v", err)
	}

	advisor, advisorName, err := buildAdvisor(policies)
	if err != nil {
		log.Fatalf("[Server] Failed to build advisor: %v", err)
	}

	lby := lobby.New(ledgerService, advisor)
	defer lby.CloseAll()
	gw := gateway.New(lby, authService)
	authHTTP := auth.NewHTTPHandler(authService)
	statsHTTP := ledger.NewHTTPHandler(authService, ledgerService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	statsHTTP.RegisterRoutes(mux)

	addr := listenAddrFromEnv()
	log.Printf("[Server] Auth mode: %s", authMode)
	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Policy store: %s, advisor: %s", policyMode, advisorName)
	log.Printf("[Server] Starting WebSocket server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}

// buildAdvisor prefers the stored default policy and falls back to solving
// the infinite-deck game at startup.
func buildAdvisor(policies policystore.Service) (agent.Policy, string, error) {
	stored, err := policies.Get(context.Background(), policystore.DefaultPolicyName)
	if err == nil {
		return stored, stored.Name(), nil
	}
	if !errors.Is(err, policystore.ErrNotFound) {
		return nil, "", err
	}

	sol, err := strategy.ValueIteration(strategy.NewModel(), strategy.DefaultGamma, strategy.DefaultTheta)
	if err != nil {
		return nil, "", err
	}
	table := strategy.FromSolution(sol)
	return table, table.Name(), nil
}

func listenAddrFromEnv() string {
	if raw := strings.TrimSpace(os.Getenv("ADDR")); raw != "" {
		return raw
	}
	return ":8080"
}
