// Command tmplctl is the operator-facing front end for the template engine:
// it loads the attribute dictionary and engine limits, then either expands
// one or more attr_ref/literal arguments from the command line or serves a
// small debug HTTP surface for doing the same over the network.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/l0p7/tmplengine/internal/config"
	"github.com/l0p7/tmplengine/internal/dictionary"
	"github.com/l0p7/tmplengine/internal/handlecache"
	"github.com/l0p7/tmplengine/internal/logging"
	"github.com/l0p7/tmplengine/internal/metrics"
	"github.com/l0p7/tmplengine/internal/reqgraph"
	"github.com/l0p7/tmplengine/internal/server"
	"github.com/l0p7/tmplengine/internal/tmpl"
)

func main() {
	var (
		configFile  = flag.String("config", "", "path to engine configuration file")
		envPrefix   = flag.String("env-prefix", "TMPLCTL", "environment variable prefix")
		serve       = flag.String("serve", "", "listen address override; when set, runs the debug HTTP surface instead of expanding arguments")
		requestFile = flag.String("request", "", "path to a JSON fixture describing an internal/reqgraph.Request to expand arguments against")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*envPrefix, *configFile)
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}

	tmpl.SetLimits(cfg.Limits.UndefinedNameCap, cfg.Limits.MaxTagValue, cfg.Limits.MaxInstanceSelector)

	dict := dictionary.New()
	bundle, err := dictionary.LoadSources(cfg.Dictionary.File, cfg.Dictionary.Folder)
	if err != nil {
		log.Fatalf("failed to load dictionary: %v", err)
	}
	if err := dict.Load(bundle); err != nil {
		log.Fatalf("failed to apply dictionary bundle: %v", err)
	}
	logger.Info("dictionary loaded", slog.Int("attributes", len(bundle.Definitions)), slog.Int("skipped", len(bundle.Skipped)))

	var watcher *dictionary.Watcher
	if cfg.Dictionary.ReloadOnEdit {
		watcher, err = dictionary.Watch(ctx, cfg.Dictionary.File, cfg.Dictionary.Folder, func(b dictionary.Bundle) {
			if err := dict.Load(b); err != nil {
				logger.Error("dictionary reload failed", slog.Any("error", err))
				return
			}
			logger.Info("dictionary reloaded", slog.Int("attributes", len(b.Definitions)))
		}, func(err error) {
			if err != nil {
				logger.Error("dictionary watch error", slog.Any("error", err))
			}
		})
		if err != nil {
			logger.Warn("dictionary watch setup failed", slog.Any("error", err))
		} else {
			defer watcher.Stop()
		}
	}

	cache, err := handlecache.New(cfg.Cache.MaxCost)
	if err != nil {
		log.Fatalf("failed to construct handle cache: %v", err)
	}
	defer cache.Close()
	tmpl.DefaultHandleCache = cache

	promRegistry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(promRegistry)

	eng := &engine{dict: dict, recorder: recorder, execTimeout: time.Duration(cfg.Limits.ExecTimeoutSeconds) * time.Second}

	if *serve != "" {
		cfg.Listen.Address, cfg.Listen.Port = splitListenOverride(*serve, cfg.Listen)
		runServer(ctx, cfg, logger, eng)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: tmplctl [-config FILE] [-request FILE] attr_ref_or_literal ...")
		os.Exit(2)
	}

	var fixture *reqgraph.Request
	if *requestFile != "" {
		fixture, err = loadRequestFixture(*requestFile)
		if err != nil {
			log.Fatalf("failed to load request fixture: %v", err)
		}
	}

	exitCode := 0
	for _, arg := range args {
		if err := expandArg(ctx, eng, arg, fixture); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func runServer(ctx context.Context, cfg config.Config, logger *slog.Logger, eng *engine) {
	handler := server.NewExpandHandler(eng)
	srv, err := server.New(cfg, logger, handler)
	if err != nil {
		logger.Error("unable to construct server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated unexpectedly", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

// expandArg parses one CLI argument and either prints its canonical form
// (no fixture supplied) or expands it against the fixture and prints the
// resulting typed value.
func expandArg(ctx context.Context, eng *engine, arg string, fixture *reqgraph.Request) error {
	quote, body := quoteAndUnwrap(arg)
	t, err := tmpl.FromString(eng.dict, body, quote, tmpl.RequestCurrent, tmpl.ListRequest, true, true)
	if err != nil {
		eng.recorder.ObserveParse(quote.String(), "error")
		return fmt.Errorf("parse: %w", err)
	}
	if err := tmpl.Verify(t); err != nil {
		eng.recorder.ObserveParse(t.Kind().String(), "invalid")
		return fmt.Errorf("verify: %w", err)
	}
	eng.recorder.ObserveParse(t.Kind().String(), "ok")

	if fixture == nil {
		fmt.Println(tmpl.Print(t))
		return nil
	}

	expandCtx := ctx
	var cancel context.CancelFunc
	if eng.execTimeout > 0 {
		expandCtx, cancel = context.WithTimeout(ctx, eng.execTimeout)
		defer cancel()
	}

	start := time.Now()
	v, err := tmpl.Expand(expandCtx, t, fixture, eng.dict)
	if t.Kind() == tmpl.KindExec {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		eng.recorder.ObserveExec(outcome, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("expand: %w", err)
	}
	fmt.Println(v.String())
	return nil
}

// loadRequestFixture decodes a JSON document directly into reqgraph.Request;
// the field set is small and entirely exported, and uuid.UUID already
// implements the text marshaling JSON needs, so no intermediate DTO is
// required.
func loadRequestFixture(path string) (*reqgraph.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	req := reqgraph.New()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, fmt.Errorf("decode request fixture: %w", err)
	}
	return req, nil
}

// quoteAndUnwrap applies the same surface quoting convention the engine's
// own lexer would: a leading/trailing matched quote character selects the
// Quote kind and is stripped from the body; a "/pattern/flags" regex literal
// keeps its trailing i/m flag letters appended to the pattern body, the form
// the dispatcher splits flags from; anything else is bare.
func quoteAndUnwrap(raw string) (tmpl.Quote, string) {
	if len(raw) >= 2 && raw[0] == '/' {
		if end := strings.LastIndexByte(raw, '/'); end > 0 && strings.Trim(raw[end+1:], "im") == "" {
			return tmpl.QuoteRegex, raw[1:end] + raw[end+1:]
		}
	}
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if first == last {
			switch first {
			case '\'':
				return tmpl.QuoteSingle, raw[1 : len(raw)-1]
			case '"':
				return tmpl.QuoteDouble, raw[1 : len(raw)-1]
			case '`':
				return tmpl.QuoteBack, raw[1 : len(raw)-1]
			case '/':
				return tmpl.QuoteRegex, raw[1 : len(raw)-1]
			}
		}
	}
	return tmpl.QuoteBare, raw
}

// splitListenOverride lets -serve accept either a bare port ("8081") or a
// full "host:port" pair, falling back to the configured listen address for
// whichever half is omitted.
func splitListenOverride(override string, fallback config.ListenConfig) (string, int) {
	host, port := fallback.Address, fallback.Port
	if override == "" {
		return host, port
	}
	if idx := strings.LastIndex(override, ":"); idx >= 0 {
		if h := override[:idx]; h != "" {
			host = h
		}
		if p := override[idx+1:]; p != "" {
			fmt.Sscanf(p, "%d", &port)
		}
		return host, port
	}
	fmt.Sscanf(override, "%d", &port)
	return host, port
}
