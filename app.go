package main

import (
	"fmt"
	"os"
	"path/filepath"

	"persona-chat/internal/chat"
	"persona-chat/internal/config"
	"persona-chat/internal/logging"
	"persona-chat/internal/openai"
	"persona-chat/internal/rag"
	"persona-chat/internal/vector"
)

// app holds the wired backend shared by every command
type app struct {
	cfg      *config.Config
	store    *vector.BadgerStore
	client   *openai.Client
	embedder *openai.Embedder
}

func setupApp() (*app, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	if err := logging.InitLogger(filepath.Dir(path), debug); err != nil {
		// Logging is best effort, the app works without it
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		logging.Close()
		return nil, err
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		logging.Close()
		return nil, err
	}
	cfg.ApplyOverrides(creds)

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		logging.Close()
		return nil, err
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		logging.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := vector.NewBadgerStore(dbPath)
	if err != nil {
		logging.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	client := openai.NewClient(cfg.Completion.BaseURL, creds.APIKey)

	logging.Logger().Info().
		Str("config", path).
		Str("db", dbPath).
		Str("model", cfg.Completion.Model).
		Str("embedding_model", cfg.Embedding.Model).
		Msg("persona-chat starting")

	return &app{
		cfg:      cfg,
		store:    store,
		client:   client,
		embedder: openai.NewEmbedder(client, cfg.Embedding.Model, cfg.Embedding.Dimensions),
	}, nil
}

// newController wires the two-stage pipeline behind a conversation controller
func (a *app) newController() *chat.Controller {
	completer := openai.NewCompleter(a.client, a.cfg.Completion.Model, a.cfg.Completion.Temperature)
	retriever := vector.NewRetriever(a.embedder, a.store, a.cfg.Retrieval.TopK)
	pipeline := rag.NewPipeline(completer, retriever)
	return chat.NewController(pipeline, a.cfg.RequestTimeout)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logging.Error("Failed to close vector store: %v", err)
	}
	logging.Close()
}
