// Command shttproxy is a small front-door HTTP/1.0 and HTTP/1.1
// reverse proxy that routes by Host prefix to backends on loopback.
// See spec.md and SPEC_FULL.md for the full design.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jeremybobbin/shttproxy/internal/accesslog"
	"github.com/jeremybobbin/shttproxy/internal/config"
	"github.com/jeremybobbin/shttproxy/internal/diag"
	"github.com/jeremybobbin/shttproxy/internal/listener"
	"github.com/jeremybobbin/shttproxy/internal/proxy"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if cfg.ShowVersion {
		fmt.Println(config.Version)
		return 0
	}

	log := diag.New()
	defer log.Sync()

	if cfg.ChDir != "" {
		if err := os.Chdir(cfg.ChDir); err != nil {
			log.Error("chdir failed", zap.String("dir", cfg.ChDir), zap.Error(err))
			return 1
		}
	}

	ln, err := listener.Bind(cfg)
	if err != nil {
		log.Error("failed to bind listener", zap.Error(err))
		return 1
	}
	defer ln.Close()

	log.Info("listening",
		zap.String("network", cfg.Network),
		zap.String("addr", ln.Addr().String()),
		zap.Int("routes", cfg.Table.Len()),
	)

	sup := &listener.Supervisor{
		Worker: &proxy.Worker{
			Table:  cfg.Table,
			Access: accesslog.New(os.Stdout),
		},
		Diag: log,
	}

	if err := sup.Serve(ln); err != nil {
		log.Error("listener supervisor stopped", zap.Error(err))
		return 1
	}
	return 0
}
