package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/imjasonh/gitblob/internal/gitcmd"
	"github.com/imjasonh/gitblob/internal/repo"
	"github.com/imjasonh/gitblob/internal/server"
	"github.com/sethvargo/go-envconfig"
)

var env = envconfig.MustProcess(context.Background(), &struct {
	Port           string        `env:"PORT,default=8080"`
	RepoPath       string        `env:"REPO_PATH,default=."`
	GitBinary      string        `env:"GIT_BINARY,default=git"`
	GitTimeout     time.Duration `env:"GIT_TIMEOUT,default=30s"`
	BlobCacheSize  int           `env:"BLOB_CACHE_SIZE,default=256"`
	BlameCacheSize int           `env:"BLAME_CACHE_SIZE,default=128"`
}{})

func main() {
	// clog/gcp/init automatically sets up the logger
	ctx := context.Background()

	slog.Info("opening repository", "env", env)
	gitRepo, err := repo.New(ctx, env.RepoPath,
		repo.WithExecOptions(
			gitcmd.WithBinary(env.GitBinary),
			gitcmd.WithTimeout(env.GitTimeout),
		),
		repo.WithCacheSize(env.BlobCacheSize),
	)
	if err != nil {
		slog.Error("failed to open repository", "error", err)
		os.Exit(1)
	}

	srv := server.New(gitRepo, server.WithBlameCacheSize(env.BlameCacheSize))

	httpServer := &http.Server{
		Addr:         ":" + env.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * env.GitTimeout,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("starting HTTP server", "port", env.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}
}
