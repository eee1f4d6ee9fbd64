package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jwebster45206/npc-engine/internal/config"
	"github.com/jwebster45206/npc-engine/internal/cooldown"
	"github.com/jwebster45206/npc-engine/internal/dispatch"
	"github.com/jwebster45206/npc-engine/internal/handlers"
	"github.com/jwebster45206/npc-engine/internal/logger"
	"github.com/jwebster45206/npc-engine/internal/loop"
	"github.com/jwebster45206/npc-engine/internal/middleware"
	"github.com/jwebster45206/npc-engine/internal/services"
	"github.com/jwebster45206/npc-engine/internal/session"
	"github.com/jwebster45206/npc-engine/internal/tools"
	"github.com/jwebster45206/npc-engine/pkg/prompt"
	"github.com/jwebster45206/npc-engine/pkg/sim"
	"github.com/jwebster45206/npc-engine/pkg/world"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting NPC Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"model_name", cfg.ModelName,
		"provider_configured", cfg.ProviderConfigured())

	if !cfg.ProviderConfigured() {
		log.Warn("LLM API key missing or placeholder; conversations are disabled")
	}

	// Cooldown store: in-memory by default, Redis when configured.
	var cooldowns cooldown.Store
	if cfg.RedisURL != "" {
		store, err := cooldown.NewRedisStore(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to connect to Redis cooldown store", "error", err)
			os.Exit(1)
		}
		cooldowns = store
	} else {
		cooldowns = cooldown.NewMemoryStore()
	}
	defer func() {
		if err := cooldowns.Close(); err != nil {
			log.Error("Error closing cooldown store", "error", err)
		}
	}()

	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry); err != nil {
		log.Error("Failed to register tools", "error", err)
		os.Exit(1)
	}
	toolConfigPath := filepath.Join(cfg.DataDir, "tools.json")
	if err := registry.LoadConfigFile(toolConfigPath); err != nil {
		log.Warn("No tool config loaded; all tools disabled", "path", toolConfigPath, "error", err)
	}

	persona, err := prompt.LoadPersonaFile(filepath.Join(cfg.DataDir, "persona.json"))
	if err != nil {
		log.Error("Failed to load persona config", "error", err)
		os.Exit(1)
	}

	// Demo world. A host engine embeds the packages directly instead.
	w := demoWorld()

	executor := dispatch.NewExecutor(log)
	dispatcher := dispatch.NewDispatcher(executor, w, registry, cooldowns, cfg.DispatchTimeout, log)

	llmService := services.NewOpenAIService(services.ProviderSettings{
		APIKey:      cfg.APIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
		BaseURL:     cfg.BaseURL,
	}, log)
	gateway := services.NewGateway(llmService, cfg.GatewayWorkers, cfg.HistoryWindow, log)

	turnLoop := loop.New(gateway, dispatcher, registry, cfg.MaxIterations, cfg.MaxToolsPerResponse, log)

	sessions := session.NewRegistry(turnLoop, w, w, w, persona, session.Settings{
		MaxDistance:        cfg.MaxDistance,
		Timeout:            cfg.SessionTimeout,
		WatchdogInterval:   cfg.WatchdogInterval,
		HistoryMaxPairs:    cfg.HistoryMaxPairs,
		ProviderConfigured: cfg.ProviderConfigured(),
	}, log)
	sessions.StartWatchdog(context.Background())

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(cfg.ProviderConfigured(), log))
	mux.Handle("/v1/chat", handlers.NewChatHandler(sessions, log))
	mux.Handle("/v1/session", handlers.NewSessionHandler(sessions, w, log))
	mux.Handle("/v1/entities", handlers.NewEntitiesHandler(w, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := executor.Shutdown(shutdownCtx); err != nil {
		log.Error("Executor shutdown timed out", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}

// demoWorld builds a tiny two-region world so the API is usable
// standalone.
func demoWorld() *sim.World {
	w := sim.NewWorld()
	w.AddRegion("village", "the village square")
	w.AddRegion("docks", "the fishing docks")

	mara, err := sim.NewEntity("npc-mara", "Mara", "farmer", world.Position{X: 2, RegionKey: "village"})
	if err != nil {
		log.Fatal(err)
	}
	mara.SetPersonalLife("Tomas", 2, []string{"expecting a harvest festival"})
	mara.SetItem("bread", 3)
	w.AddEntity(mara)

	finn, err := sim.NewEntity("npc-finn", "Finn", "fisherman", world.Position{X: 40, RegionKey: "docks"})
	if err != nil {
		log.Fatal(err)
	}
	finn.SetActivity("mending nets")
	w.AddEntity(finn)

	w.AddActor(sim.NewActor("player-1", "Traveler", world.Position{X: 0, RegionKey: "village"}))
	return w
}
