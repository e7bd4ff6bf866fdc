package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medxtutor/internal/gateway/config"
	"medxtutor/internal/gateway/handler"
	"medxtutor/internal/gateway/repository/artifact"
	"medxtutor/internal/gateway/repository/sessionstore"
	"medxtutor/internal/gateway/server"
	"medxtutor/internal/genclient"
	"medxtutor/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	client, err := genclient.New(ctx, cfg.Gemini.Models())
	if err != nil {
		log.Fatalf("gemini client: %v", err)
	}

	artifacts := buildArtifactStore(cfg)
	records := sessionstore.NewFromEnv(cfg.SessionPath)

	mgr, err := pipeline.NewManager(pipeline.FromClient(client), artifacts, records)
	if err != nil {
		log.Fatalf("pipeline manager: %v", err)
	}

	svc := handler.NewService(mgr, artifacts, records)
	srv := server.New(cfg.Port, server.NewMux(svc))

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func buildArtifactStore(cfg *config.Config) artifact.Store {
	if !cfg.Artifact.Enabled {
		log.Printf("artifact store: object storage disabled, using in-memory store")
		return artifact.NewMemoryStore()
	}
	s3, err := artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Artifact.Endpoint,
		Region:    cfg.Artifact.Region,
		AccessKey: cfg.Artifact.AccessKey,
		SecretKey: cfg.Artifact.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.Artifact.UseSSL,
	})
	if err != nil {
		log.Printf("artifact store: %v, falling back to in-memory store", err)
		return artifact.NewMemoryStore()
	}
	return s3
}
