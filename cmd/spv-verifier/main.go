package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/clock"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/metrics"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/bitcoind"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/chain"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/headerstore"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/ingest"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/insight"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/model"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/report"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/repository/clickhouse"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/service/synchronizer"
	"github.com/goodnatureofminers/blockinsight7000-spv/internal/spv/verifier"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	sourceInsight  = "insight"
	sourceBitcoind = "bitcoind"

	storeMemory     = "memory"
	storeBolt       = "bolt"
	storeClickhouse = "clickhouse"

	resultsFlushSize     = 500
	resultsFlushInterval = 5 * time.Second
	resultsFlushRPS      = 10
)

type config struct {
	Network model.Network `long:"network" env:"SPV_NETWORK" description:"network name (mainnet, testnet, regtest, signet)" default:"mainnet"`
	Source  string        `long:"source" env:"SPV_SOURCE" description:"header and transaction source" choice:"insight" choice:"bitcoind" default:"insight"`

	InsightURL        string        `long:"insight-url" env:"SPV_INSIGHT_URL" description:"Insight explorer base URL, defaults to the public explorer of the network"`
	InsightAPIPrefix  string        `long:"insight-api-prefix" env:"SPV_INSIGHT_API_PREFIX" description:"Insight API path prefix" default:"/api"`
	UserAgent         string        `long:"user-agent" env:"SPV_USER_AGENT" description:"User-Agent sent to the explorer" default:"blockinsight7000-spv"`
	RequestTimeout    time.Duration `long:"request-timeout" env:"SPV_REQUEST_TIMEOUT" description:"explorer request timeout" default:"30s"`
	MaxRetries        int           `long:"max-retries" env:"SPV_MAX_RETRIES" description:"explorer request retries" default:"3"`
	RequestsPerSecond int           `long:"requests-per-second" env:"SPV_REQUESTS_PER_SECOND" description:"explorer request rate limit, 0 disables" default:"0"`

	RPCURL      string `long:"rpc-url" env:"SPV_RPC_URL" description:"Bitcoin RPC URL" default:"http://127.0.0.1:8332"`
	RPCUser     string `long:"rpc-user" env:"SPV_RPC_USER" description:"Bitcoin RPC username"`
	RPCPassword string `long:"rpc-password" env:"SPV_RPC_PASSWORD" description:"Bitcoin RPC password"`

	Store             string `long:"store" env:"SPV_STORE" description:"header store backend" choice:"memory" choice:"bolt" choice:"clickhouse" default:"memory"`
	BoltPath          string `long:"bolt-path" env:"SPV_BOLT_PATH" description:"bolt header store file" default:"spv-headers.db"`
	ClickhouseDSN     string `long:"clickhouse-dsn" env:"SPV_CLICKHOUSE_DSN" description:"ClickHouse DSN"`
	ResultsClickhouse bool   `long:"results-clickhouse" env:"SPV_RESULTS_CLICKHOUSE" description:"persist verification results to ClickHouse"`

	StopHash          string        `long:"stop-hash" env:"SPV_STOP_HASH" description:"stop backfill at this block and do not follow past it"`
	BackfillBatchSize int           `long:"backfill-batch-size" env:"SPV_BACKFILL_BATCH_SIZE" description:"headers requested per backfill batch" default:"100"`
	BackfillRetries   int           `long:"backfill-retries" env:"SPV_BACKFILL_RETRIES" description:"retries per failed header batch, negative disables" default:"3"`
	PollInterval      time.Duration `long:"poll-interval" env:"SPV_POLL_INTERVAL" description:"new block poll interval, negative disables" default:"30s"`
	FetchWorkers      int           `long:"fetch-workers" env:"SPV_FETCH_WORKERS" description:"concurrent raw transaction fetches" default:"4"`

	ZMQAddr  string `long:"zmq-addr" env:"SPV_ZMQ_ADDR" description:"bitcoind zmq hashblock endpoint"`
	Input    string `long:"input" env:"SPV_INPUT" description:"verification requests, one JSON record per line; - reads stdin" default:"-"`
	GRPCAddr string `long:"grpc-addr" env:"SPV_GRPC_ADDR" description:"status gRPC addr" default:":8000"`
	RestAddr string `long:"rest-addr" env:"SPV_REST_ADDR" description:"status REST and metrics addr" default:":8001"`
}

// dataSource is what both the synchronizer and the proof engine read from.
type dataSource interface {
	GetHeader(ctx context.Context, hash string) (*chain.RemoteHeader, error)
	GetHeaders(ctx context.Context, fromHash string, limit int) ([]chain.RemoteHeader, error)
	GetFilteredBlockTransactions(ctx context.Context, blockHash, txid string) (*chain.BlockTransactions, error)
	GetRawTransaction(ctx context.Context, txid string) (*chain.RawTransaction, error)
}

// requestSink accepts decoded verification requests.
type requestSink interface {
	Report(entries ...model.PendingVerification)
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("spv verifier failed", zap.Error(err))
	}
}

func (c config) validate() error {
	if c.Store == storeClickhouse || c.ResultsClickhouse {
		if c.ClickhouseDSN == "" {
			return errors.New("ClickHouse DSN is required")
		}
	}
	if c.Store == storeBolt && c.BoltPath == "" {
		return errors.New("bolt path is required")
	}
	if c.StopHash != "" {
		if _, err := chain.NormalizeHash(c.StopHash); err != nil {
			return fmt.Errorf("stop hash: %w", err)
		}
	}
	return nil
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	params, err := chain.Params(cfg.Network)
	if err != nil {
		return err
	}

	source, closeSource, err := newDataSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("init data source: %w", err)
	}
	defer closeSource()

	backend, err := newBackend(cfg)
	if err != nil {
		return fmt.Errorf("init header store: %w", err)
	}
	store := headerstore.New(backend, metrics.NewHeaderStore(cfg.Store, cfg.Network))
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close header store", zap.Error(err))
		}
	}()

	engine := verifier.NewEngine(
		source,
		store,
		verifier.NewOutputVerifier(params, logger.Named("outputs")),
		cfg.FetchWorkers,
		metrics.NewVerifier(cfg.Network),
		logger.Named("verifier"),
	)

	reporters := report.Multi{report.NewLogReporter(logger.Named("report"))}
	if cfg.ResultsClickhouse {
		repo, err := clickhouse.NewRepository(cfg.ClickhouseDSN, cfg.Network, metrics.NewClickhouseRepository())
		if err != nil {
			return fmt.Errorf("init results repository: %w", err)
		}
		defer func() {
			_ = repo.Close()
		}()
		results := report.NewRepositoryReporter(logger, repo, resultsFlushSize, resultsFlushInterval, resultsFlushRPS)
		results.Start(ctx)
		defer results.Stop()
		reporters = append(reporters, results)
	}

	blockSignal, err := startBlockSignal(ctx, cfg.ZMQAddr, logger)
	if err != nil {
		return fmt.Errorf("init block signal: %w", err)
	}

	sync, err := synchronizer.New(
		source,
		store,
		engine,
		reporters,
		nil,
		metrics.NewSynchronizer(cfg.Network),
		synchronizer.Config{
			Checkpoints:  chain.Checkpoints(params),
			StopHash:     cfg.StopHash,
			BatchSize:    cfg.BackfillBatchSize,
			MaxRetries:   cfg.BackfillRetries,
			Backoff:      clock.Backoff{Initial: time.Second, Max: 30 * time.Second},
			PollInterval: cfg.PollInterval,
		},
		logger.Named("synchronizer"),
		blockSignal,
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sync.Run(gctx)
	})
	g.Go(func() error {
		return serveStatus(gctx, cfg.GRPCAddr, cfg.RestAddr, sync, logger)
	})
	if cfg.Input != "" {
		in, err := openInput(cfg.Input)
		if err != nil {
			return err
		}
		go func() {
			<-gctx.Done()
			_ = in.Close()
		}()
		g.Go(func() error {
			return readRequests(gctx, in, sync, logger.Named("ingest"))
		})
	}
	return g.Wait()
}

func newDataSource(cfg config, logger *zap.Logger) (dataSource, func(), error) {
	switch cfg.Source {
	case sourceBitcoind:
		host, err := rpcHost(cfg.RPCURL)
		if err != nil {
			return nil, nil, err
		}
		client, err := bitcoind.Dial(bitcoind.RPCConfig{Host: host, User: cfg.RPCUser, Password: cfg.RPCPassword})
		if err != nil {
			return nil, nil, err
		}
		rpc := bitcoind.NewObservedClient(client, metrics.NewDataSource(sourceBitcoind, cfg.Network))
		return bitcoind.NewSource(rpc), shutdownRPC(client), nil
	default:
		explorerURL := cfg.InsightURL
		if explorerURL == "" {
			var err error
			if explorerURL, err = insight.DefaultURL(cfg.Network); err != nil {
				return nil, nil, err
			}
		}
		logger.Info("using insight explorer", zap.String("url", explorerURL))
		client, err := insight.NewClient(insight.ClientConfig{
			URL:               explorerURL,
			APIPrefix:         cfg.InsightAPIPrefix,
			UserAgent:         cfg.UserAgent,
			RequestTimeout:    cfg.RequestTimeout,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}, metrics.NewDataSource(sourceInsight, cfg.Network))
		if err != nil {
			return nil, nil, err
		}
		return insight.NewSource(client), func() {}, nil
	}
}

func shutdownRPC(client *rpcclient.Client) func() {
	return func() {
		client.Shutdown()
		client.WaitForShutdown()
	}
}

func rpcHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return "", fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("rpc url missing host")
	}
	return parsed.Host, nil
}

func newBackend(cfg config) (headerstore.Backend, error) {
	switch cfg.Store {
	case storeBolt:
		return headerstore.OpenBolt(cfg.BoltPath)
	case storeClickhouse:
		return clickhouse.NewRepository(cfg.ClickhouseDSN, cfg.Network, metrics.NewClickhouseRepository())
	default:
		return headerstore.NewMemoryBackend(), nil
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// readRequests feeds decoded records to the synchronizer until EOF. Invalid
// records are logged and skipped.
func readRequests(ctx context.Context, r io.Reader, sink requestSink, logger *zap.Logger) error {
	dec := ingest.NewDecoder(r, "")
	accepted := 0
	for {
		p, err := dec.Next()
		switch {
		case err == nil:
			sink.Report(p)
			accepted++
		case errors.Is(err, io.EOF):
			logger.Info("input finished", zap.Int("accepted", accepted))
			return nil
		case errors.Is(err, ingest.ErrInvalidRecord):
			logger.Warn("skip invalid record", zap.Error(err))
		default:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
	}
}
