package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsib/0x-swap-api/internal/api"
	"github.com/itsib/0x-swap-api/internal/calldata"
	"github.com/itsib/0x-swap-api/internal/config"
	"github.com/itsib/0x-swap-api/internal/feed"
	"github.com/itsib/0x-swap-api/internal/gasest"
	"github.com/itsib/0x-swap-api/internal/metrics"
	"github.com/itsib/0x-swap-api/internal/node"
	"github.com/itsib/0x-swap-api/internal/routing"
	"github.com/itsib/0x-swap-api/internal/swap"
	"github.com/itsib/0x-swap-api/internal/tokens"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encodeLevel := func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		switch l {
		case zapcore.WarnLevel:
			enc.AppendString("warning")
		case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
			enc.AppendString("fatality")
		default:
			enc.AppendString(l.String())
		}
	}
	encodeTime := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(time.RFC3339))
	}

	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    encodeLevel,
			EncodeTime:     encodeTime,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

func parseFlags() (cfgPath string, checkConfig bool) {
	flag.StringVar(&cfgPath, "config", "", "path to the YAML config; environment variables override it")
	flag.BoolVar(&checkConfig, "check-config", false, "validate the configuration and exit")
	flag.Parse()
	return cfgPath, checkConfig
}

func main() {
	cfgPath, checkConfig := parseFlags()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if checkConfig {
		logger.Info("configuration ok")
		return
	}
	chainParams := cfg.ResolveChain()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var multicallAddr common.Address
	if cfg.Contracts.Multicall != "" {
		multicallAddr = common.HexToAddress(cfg.Contracts.Multicall)
	}
	nodeClient, err := node.Dial(ctx, cfg.Chain.RPCURL, cfg.RPCTimeout(), multicallAddr, logger)
	if err != nil {
		logger.Fatal("dial node", zap.Error(err))
	}
	defer nodeClient.Close()

	estimator, err := newEstimator(cfg, chainParams, nodeClient, logger)
	if err != nil {
		logger.Fatal("gas estimator", zap.Error(err))
	}

	engine := routing.NewClient(cfg.Routing.URL, cfg.RoutingTimeout(), logger)
	patcher := calldata.NewPatcher(
		common.HexToAddress(cfg.Contracts.FeeRecipient),
		common.HexToAddress(cfg.Contracts.NativeTokenSentinel),
		cfg.Contracts.PayTakerTransformerNonce,
		logger,
	)
	service, err := swap.NewService(chainParams, swap.ConfigFrom(cfg), engine, patcher, estimator, nodeClient, logger)
	if err != nil {
		logger.Fatal("swap service", zap.Error(err))
	}
	registry, err := tokens.NewRegistry(chainParams, cfg, nodeClient, logger)
	if err != nil {
		logger.Fatal("token registry", zap.Error(err))
	}

	publisher := feed.NewPublisher(cfg, logger)
	defer publisher.Close()
	var quoteFeed api.QuoteFeed
	if publisher != nil {
		quoteFeed = publisher
	}

	handler := api.NewSwapHandler(logger, service, registry, quoteFeed, chainParams, api.Defaults{
		SlippagePercentage:     cfg.Quote.DefaultSlippage,
		DepthMaxSamples:        cfg.Quote.DepthMaxSamples,
		SampleDistributionBase: cfg.Quote.DepthDistributionBase,
	})

	app := fiber.New(fiber.Config{
		AppName:               "0x-swap-api",
		ReadTimeout:           cfg.ReadTimeout(),
		ErrorHandler:          api.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(api.RequestLogger(logger))
	api.RegisterRoutes(app, handler, cfg.HealthAddr() == "")

	metrics.Serve(ctx, cfg.HealthAddr(), func(ctx context.Context) error {
		_, err := nodeClient.ChainID(ctx)
		return err
	}, logger)

	go func() {
		logger.Info("swap api listening",
			zap.String("addr", cfg.ListenAddr()),
			zap.Uint64("chain_id", uint64(chainParams.ChainID)),
			zap.Bool("state_overrides", chainParams.SupportsOverrides),
		)
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Warn("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

// newEstimator picks the state override simulation when the chain supports
// it and a fake taker bytecode is configured, else the plain eth_call path.
func newEstimator(cfg *config.Config, chainParams *config.ChainParams, nodeClient *node.Client, logger *zap.Logger) (*gasest.Estimator, error) {
	g := cfg.GasEstimation
	estCfg := gasest.Config{
		EstimateMultiplier: g.EstimateMultiplier,
		BalanceMultiplier:  g.BalanceMultiplier,
		DefaultGasLimit:    g.DefaultGasLimit,
		ValidationGasLimit: g.ValidationGasLimit,
	}

	var sim gasest.Simulator
	switch {
	case !chainParams.SupportsOverrides:
		logger.Info("state overrides unsupported on chain, using eth_call validation")
	case g.FakeTakerBytecode == "":
		logger.Warn("fake taker bytecode not configured, using eth_call validation")
	default:
		code, err := hexutil.Decode(g.FakeTakerBytecode)
		if err != nil {
			return nil, err
		}
		estCfg.FakeTakerCode = code
		ft, err := gasest.NewFakeTakerSimulator(nodeClient)
		if err != nil {
			return nil, err
		}
		sim = ft
	}
	return gasest.NewEstimator(nodeClient, sim, estCfg, logger)
}
