package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	simulator "github.com/LeonardoBeccarini/agrichain_dashboard/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/app"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/pages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/live"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/rabbitmq"
)

const healthService = "agrichain.dashboard"

// moistureHalfLife is how fast simulated soil dries without irrigation.
const moistureHalfLife = 2 * time.Hour

var (
	verbose bool
	envFile string
	logger  *zap.SugaredLogger
	conf    settings
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "智播农链 crop recommendation dashboard",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotenv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return err
		}
		logger = l.Sugar()
		rabbitmq.UseLogger(logger)
		conf = loadSettings()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var renderCmd = &cobra.Command{
	Use:   "render <page> [key=value ...]",
	Short: "Render one page as JSON on stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  renderPage,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and print the catalog as JSON",
	Args:  cobra.NoArgs,
	RunE:  printCatalog,
}

var (
	simPlot     string
	simSensors  int
	simInterval time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Publish simulated sensor readings on the MQTT broker",
	Args:  cobra.NoArgs,
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simPlot, "plot", "P001", "Plot id the sensors belong to")
	simulateCmd.Flags().IntVar(&simSensors, "sensors", 4, "Number of simulated sensors")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", 10*time.Second, "Publish interval")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
	rootCmd.AddCommand(serveCmd, renderCmd, catalogCmd, simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadCatalog() (*catalog.Catalog, error) {
	if conf.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(conf.CatalogPath)
}

func printCatalog(cmd *cobra.Command, _ []string) error {
	c, err := loadCatalog()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// renderPage renders without live integrations; extra args become page options.
func renderPage(cmd *cobra.Command, args []string) error {
	c, err := loadCatalog()
	if err != nil {
		return err
	}
	opts := url.Values{}
	for _, kv := range args[1:] {
		q, err := url.ParseQuery(kv)
		if err != nil {
			return fmt.Errorf("option %q: %w", kv, err)
		}
		for k, vs := range q {
			opts[k] = append(opts[k], vs...)
		}
	}
	env := &pages.Env{Catalog: c, Seed: conf.Seed, Options: opts, Log: logger}
	p, err := pages.Render(cmd.Context(), args[0], env)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

type integrations struct {
	sources   *live.Sources
	sinks     live.Sinks
	history   live.HistorySource
	telemetry *live.Telemetry
	upstream  *live.Upstream
}

// connect wires the optional integrations: MQTT feed and event publisher,
// the persistence service and InfluxDB. Each one that fails is logged and skipped.
func connect(ctx context.Context, s settings) *integrations {
	in := &integrations{sources: live.NewSources(logger)}

	if s.MQTTEnabled {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &s.MQTT)
		if err != nil {
			logger.Warnf("dashboard: mqtt disabled: %v", err)
		} else {
			feed := live.NewFeed(dedup.New(time.Minute, 10000), logger)
			consumer := rabbitmq.NewConsumer(client, feed.Handle, s.SensorTopic)
			go feed.Run(ctx, consumer)
			in.sources.Add("mqtt", feed)
			in.sinks = append(in.sinks, live.NewMQTTSink(rabbitmq.NewPublisher(client, 1)))
			logger.Infof("dashboard: mqtt feed on %s topic=%s", s.MQTT.Broker(), s.SensorTopic)
		}
	}

	s.Upstream.Logger = logger
	in.upstream = live.NewUpstream(s.Upstream)
	if in.upstream.Enabled() {
		in.sources.Add("persistence", in.upstream)
	}

	t, err := live.NewTelemetry(s.Influx, logger)
	switch {
	case errors.Is(err, live.ErrDisabled):
	case err != nil:
		logger.Warnf("dashboard: influx disabled: %v", err)
	default:
		in.telemetry = t
		in.history = t
		in.sinks = append(in.sinks, t)
	}
	return in
}

// ready fails while a configured dependency is unreachable.
func (in *integrations) ready(ctx context.Context) error {
	if in.telemetry != nil {
		if err := in.telemetry.Ping(ctx); err != nil {
			return fmt.Errorf("influx: %w", err)
		}
	}
	if in.upstream.Enabled() && in.upstream.State() == "open" {
		return errors.New("persistence: circuit open")
	}
	return nil
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := conf
	c, err := loadCatalog()
	if err != nil {
		return err
	}
	in := connect(ctx, s)
	defer in.telemetry.Close()

	cfg := app.Config{
		Catalog:       c,
		Seed:          s.Seed,
		SessionTTL:    s.SessionTTL,
		CookieSecure:  s.CookieSecure,
		RenderTimeout: s.RenderTimeout,
		Live:          in.sources,
		History:       in.history,
		Ready:         in.ready,
		Logger:        logger,
	}
	if len(in.sinks) > 0 {
		cfg.Events = in.sinks
	}
	d, err := app.New(cfg)
	if err != nil {
		return err
	}

	go d.Sessions().Run(ctx, s.SweepInterval, func(n int) {
		if n > 0 {
			logger.Debugf("dashboard: expired %d sessions", n)
		}
	})

	var grpcServer *grpc.Server
	if s.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+s.GRPCPort)
		if err != nil {
			return fmt.Errorf("listen grpc :%s: %w", s.GRPCPort, err)
		}
		hs := health.NewServer()
		hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, hs)
		go func() {
			logger.Infof("dashboard: grpc health on :%s", s.GRPCPort)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Errorf("dashboard: grpc serve: %v", err)
			}
		}()
		defer hs.Shutdown()
	}

	srv := &http.Server{
		Addr:              ":" + s.Port,
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Infof("dashboard: http on :%s sources=%d events=%d", s.Port, in.sources.Len(), len(in.sinks))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warnf("dashboard: shutdown: %v", err)
	}
	logger.Info("dashboard: shutdown complete")
	return nil
}

// simulate feeds the broker the dashboard listens on and follows its irrigation commands.
func simulate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := conf
	if !s.MQTTEnabled {
		return errors.New("simulate needs MQTT_HOST")
	}
	c, err := loadCatalog()
	if err != nil {
		return err
	}
	plot, ok := c.Plot(simPlot)
	if !ok {
		return fmt.Errorf("unknown plot %q", simPlot)
	}

	s.MQTT.ClientID += "-simulator"
	client, err := rabbitmq.NewRabbitMQConn(ctx, &s.MQTT)
	if err != nil {
		return err
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	sim := simulator.NewSensorSimulator(
		rabbitmq.NewConsumer(client, nil, simulator.CommandTopic),
		rabbitmq.NewPublisher(client, 1),
		simulator.NewDataGenerator(simulator.DecayForHalfLife(moistureHalfLife), s.Seed),
		plot.ID,
		simulator.SensorIDs(plot, simSensors),
		logger,
	)
	logger.Infof("simulator: %d sensors on plot %s every %s", simSensors, plot.ID, simInterval)
	sim.Start(ctx, simInterval)
	return nil
}
