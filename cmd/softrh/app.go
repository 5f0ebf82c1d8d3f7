package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/softrh/softrh/internal/config"
	"github.com/softrh/softrh/internal/recordstore"
	"github.com/softrh/softrh/internal/storage"
)

// app is what every record command works on: the loaded config and an open
// record store.
type app struct {
	cfg   config.Config
	store *recordstore.Store
	log   *slog.Logger
	kv    storage.KV
}

func (a *app) Close() error {
	return a.kv.Close()
}

// openApp loads config and opens the configured backend. Tests replace it
// with an in-memory store.
var openApp = func(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(log)

	kv, err := openKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	store, err := recordstore.New(ctx, kv,
		recordstore.WithKey(cfg.Storage.Key),
		recordstore.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Join(err, kv.Close())
	}
	return &app{cfg: cfg, store: store, log: log, kv: kv}, nil
}

func openKV(ctx context.Context, sc config.StorageConfig) (storage.KV, error) {
	switch sc.Backend {
	case "mongo":
		kv, err := storage.OpenMongo(ctx, sc.MongoURI, sc.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo storage: %w", err)
		}
		return kv, nil
	default:
		kv, err := storage.Open(sc.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
		return kv, nil
	}
}

// withApp opens the app, runs fn and closes the app again.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}()
	return fn(a)
}
