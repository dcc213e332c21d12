package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aklo360/mcliv/commerce"
	"github.com/aklo360/mcliv/field"
	"github.com/aklo360/mcliv/sculpture"
	"github.com/aklo360/mcliv/site"
	"github.com/aklo360/mcliv/termview"
	"github.com/aklo360/mcliv/web"
)

var (
	logger      = zap.NewNop().Sugar()
	stopProfile = func() {}
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcliv",
		Short: "Point-field sculpture and storefront plumbing for the mcliv studio site",
		Long: `mcliv renders the studio's point-field sculpture in a window (default) or a
terminal, and serves the site's newsletter, cart, product and site endpoints.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { teardown() },
		RunE:              runWindow,
	}
	bindRootFlags(root)
	bindWindowFlags(root)

	window := &cobra.Command{
		Use:   "window",
		Short: "Show the sculpture in a desktop window",
		Args:  cobra.NoArgs,
		RunE:  runWindow,
	}
	bindWindowFlags(window)

	term := &cobra.Command{
		Use:   "term",
		Short: "Show the sculpture in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runTerm,
	}
	bindTermFlags(term)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	bindServeFlags(serve)

	product := &cobra.Command{
		Use:   "product <handle>",
		Short: "Look up a product by handle",
		Args:  cobra.ExactArgs(1),
		RunE:  runProduct,
	}

	root.AddCommand(window, term, serve, product)
	return root
}

// setup builds the logger and starts profiling. The terminal host owns
// stderr, so it only logs when a log file is given.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "term" && logFileFlag == "" {
		logger = zap.NewNop().Sugar()
	} else {
		l, err := newLogger()
		if err != nil {
			return err
		}
		logger = l
	}
	if cpuProfileFlag != "" {
		stop, err := startCPUProfile(cpuProfileFlag)
		if err != nil {
			return err
		}
		stopProfile = stop
		logger.Infow("cpu profiling", "path", cpuProfileFlag)
	}
	return nil
}

func teardown() {
	stopProfile()
	_ = logger.Sync()
}

func newLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if verboseFlag {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if logFileFlag != "" {
		cfg.OutputPaths = []string{logFileFlag}
		cfg.ErrorOutputPaths = []string{logFileFlag}
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l.Sugar(), nil
}

// sculptureConfig applies the tuning file and flags over the defaults.
func sculptureConfig() (sculpture.Config, error) {
	cfg := sculpture.DefaultConfig()
	if tuningFlag != "" {
		if err := sculpture.LoadTuning(tuningFlag, &cfg); err != nil {
			return cfg, err
		}
	}
	if reducedMotionFlag {
		cfg.ReducedMotion = true
	}
	return cfg, cfg.Validate()
}

func newSculpture(cfg sculpture.Config, log *zap.SugaredLogger) *sculpture.Sculpture {
	opts := []sculpture.Option{sculpture.WithLogger(log)}
	switch {
	case gpuFlag:
		opts = append(opts, sculpture.WithLoader(gpuLoader(log)))
	case workersFlag != 1:
		opts = append(opts, sculpture.WithLoader(parallelLoader(workersFlag)))
	}
	return sculpture.New(cfg, opts...)
}

func parallelLoader(workers int) sculpture.Loader {
	return func(ctx context.Context, cfg sculpture.Config) (sculpture.Resources, error) {
		if err := ctx.Err(); err != nil {
			return sculpture.Resources{}, err
		}
		return sculpture.Resources{Stepper: field.NewParallelStepper(cfg.Physics, workers)}, nil
	}
}

// gpuLoader acquires the OpenCL stepper. Any error makes the sculpture fall
// back to the CPU stepper.
func gpuLoader(log *zap.SugaredLogger) sculpture.Loader {
	return func(ctx context.Context, cfg sculpture.Config) (sculpture.Resources, error) {
		if err := ctx.Err(); err != nil {
			return sculpture.Resources{}, err
		}
		st, err := newOpenCLStepper(cfg.Physics)
		if err != nil {
			return sculpture.Resources{}, fmt.Errorf("opencl stepper: %w", err)
		}
		log.Infow("OpenCL stepper enabled", "device", st.DeviceName())
		return sculpture.Resources{Stepper: st}, nil
	}
}

func runWindow(*cobra.Command, []string) error {
	cfg, err := sculptureConfig()
	if err != nil {
		return err
	}
	log := logger.Named("window")
	g := newGame(newSculpture(cfg, log), log, cfg.MaxPixelRatio)
	if enableAudioFlag {
		g.enableAudio()
	}

	scale := windowScaleFlag
	if scale <= 0 {
		scale = defaultWindowScale
	}
	ebiten.SetWindowSize(int(windowWidth*scale), int(windowHeight*scale))
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err = ebiten.RunGame(g)
	g.shutdown()
	return err
}

func runTerm(cmd *cobra.Command, _ []string) error {
	cfg, err := sculptureConfig()
	if err != nil {
		return err
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising terminal: %w", err)
	}
	defer screen.Fini()

	log := logger.Named("term")
	host := termview.New(screen,
		termview.WithLogger(log),
		termview.WithFrameInterval(frameIntervalFlag),
		termview.WithReducedMotion(reducedMotionFlag),
		termview.WithForeground(tcell.ColorSilver),
	)
	s := newSculpture(cfg, log)
	if err := s.Mount(host); err != nil {
		return err
	}
	defer s.Unmount()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return host.Run(ctx)
}

// commerceConfig reads credentials from the environment and fills the
// endpoint from the site configuration where the environment is silent.
func commerceConfig(sc site.Config) commerce.Config {
	cfg := commerce.ConfigFromEnv()
	if cfg.StoreDomain == "" {
		cfg.StoreDomain = sc.Commerce.StoreDomain
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = sc.Commerce.APIVersion
	}
	return cfg
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, err := site.NewStore(sitePathFlag, site.WithLogger(logger.Named("site")))
	if err != nil {
		return err
	}
	client := commerce.New(commerceConfig(store.Config()), commerce.WithLogger(logger.Named("commerce")))
	srv := web.New(client, store,
		web.WithLogger(logger.Named("web")),
		web.WithUpstreamTimeout(upstreamTimeout),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx, addrFlag) })
	if sitePathFlag != "" {
		g.Go(func() error { return store.Watch(ctx) })
	}
	return g.Wait()
}

func runProduct(cmd *cobra.Command, args []string) error {
	sc := site.Default()
	if sitePathFlag != "" {
		loaded, err := site.Load(sitePathFlag)
		if err != nil {
			return err
		}
		sc = loaded
	}
	client := commerce.New(commerceConfig(sc), commerce.WithLogger(logger.Named("commerce")))

	ctx, cancel := context.WithTimeout(cmd.Context(), upstreamTimeout)
	defer cancel()
	p, err := client.ProductByHandle(ctx, args[0])
	if err != nil {
		if errors.Is(err, commerce.ErrNotConfigured) {
			return fmt.Errorf("%w: set SHOPIFY_STORE_DOMAIN and a token", err)
		}
		return err
	}
	if p == nil {
		return fmt.Errorf("product %q not found", args[0])
	}
	out := struct {
		*commerce.Product
		Description string `json:"description"`
	}{p, p.Description()}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
