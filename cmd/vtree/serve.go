package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree"
	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/internal/treefile"
	"github.com/vango-dev/vtree/pkg/server"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vdom"
)

type serveOptions struct {
	dir   string
	port  int
	host  string
	title string
	every time.Duration
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [files...]",
		Short: "Serve a live session stepping through tree documents",
		Long: `Serve a live session over HTTP and websocket.

The session starts on the first tree. Each POST /advance (or each tick
of --every) moves it to the next tree, wrapping around, and streams the
patches to every websocket subscriber. Without file arguments the trees
listed in vtree.json are used.

Routes:
  GET  /          the current tree as an HTML page
  GET  /ws        websocket stream of snapshot and patches frames
  GET  /snapshot  the current snapshot frame
  GET  /metrics   prometheus metrics (metrics.enabled in vtree.json)
  POST /advance   move to the next tree

Examples:
  vtree serve step1.yaml step2.yaml step3.yaml
  vtree serve --port=8080 --every=2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "config", "c", ".", "Directory containing vtree.json")
	cmd.Flags().IntVarP(&opts.port, "port", "p", -1, "Port to listen on (default from vtree.json)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from vtree.json)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Page title (default from vtree.json)")
	cmd.Flags().DurationVar(&opts.every, "every", 0, "Advance automatically at this interval")

	return cmd
}

func runServe(ctx context.Context, out, logOut io.Writer, files []string, opts serveOptions) error {
	cfg, err := config.LoadOrDefault(opts.dir)
	if err != nil {
		return err
	}
	if opts.port >= 0 {
		cfg.Port = opts.port
	}
	if opts.host != "" {
		cfg.Host = opts.host
	}
	if opts.title != "" {
		cfg.Server.Title = opts.title
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(files) == 0 {
		files = cfg.TreePaths()
	}
	if len(files) == 0 {
		return errors.New("E501").
			WithDetail("no tree documents to serve").
			WithSuggestion("Pass tree files or list them under \"trees\" in vtree.json")
	}
	loader := treefile.NewLoader()
	trees := make([]*vdom.VNode, len(files))
	for i, f := range files {
		if trees[i], err = loader.LoadFile(f); err != nil {
			return err
		}
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, err := openStore(ctx, cfg.Snapshot)
	if err != nil {
		return err
	}
	defer store.Close()

	engineOpts := []vtree.Option{vtree.WithLogger(logger)}
	sessionOpts := []server.SessionOption{
		server.WithLogger(logger),
		server.WithConfig(cfg.ServerConfig()),
		server.WithStore(store),
		server.WithDispatch(func(msg any, sync bool) {
			logger.Info("message", "msg", fmt.Sprintf("%v", msg), "sync", sync)
		}),
	}
	var serverOpts []server.ServerOption

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		engineOpts = append(engineOpts, vtree.WithMetrics(vtree.NewMetrics(
			vtree.WithRegistry(reg),
			vtree.WithNamespace(cfg.Metrics.Namespace),
		)))
		sessionOpts = append(sessionOpts, server.WithMetrics(server.NewMetrics(reg, cfg.Metrics.Namespace)))
		serverOpts = append(serverOpts, server.WithGatherer(reg))
	}
	sessionOpts = append(sessionOpts, server.WithEngine(vtree.New(engineOpts...)))

	session := server.NewSession(ctx, cfg.Server.Session, trees[0], sessionOpts...)
	advance := stepper(session, trees)
	serverOpts = append(serverOpts, server.WithAdvance(advance))

	if opts.every > 0 {
		go func() {
			ticker := time.NewTicker(opts.every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := advance(ctx); err != nil {
						logger.Warn("advance failed", errors.Attr(err))
					}
				}
			}
		}()
	}

	success(out, "serving %d trees as session %q", len(trees), session.ID())
	info(out, "http://%s", cfg.Address())
	return server.NewServer(session, serverOpts...).ListenAndServe(ctx, cfg.Address())
}

// stepper returns an AdvanceFunc that moves session through trees in
// order, wrapping around after the last one.
func stepper(session *server.Session, trees []*vdom.VNode) server.AdvanceFunc {
	var (
		mu   sync.Mutex
		next = 1
	)
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		tree := trees[next%len(trees)]
		if _, err := session.Update(ctx, tree); err != nil {
			return err
		}
		next++
		return nil
	}
}

func openStore(ctx context.Context, cfg config.SnapshotConfig) (snapshot.Store, error) {
	switch cfg.Backend {
	case config.BackendS3:
		client, err := s3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return snapshot.NewS3Store(client, cfg.Bucket, cfg.Prefix), nil
	case config.BackendMemory:
		return snapshot.NewMemoryStore(), nil
	default:
		return nil, errors.New("E402").WithDetail("unknown snapshot backend " + cfg.Backend)
	}
}

// s3Client builds a client from the default AWS configuration chain. A
// configured endpoint (MinIO, localstack) switches to path-style addressing.
func s3Client(ctx context.Context, cfg config.SnapshotConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, errors.New("E402").WithDetail("cannot load AWS configuration").Wrap(err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
