package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"area-meter/config"
	telegram "area-meter/internal/api"
	"area-meter/internal/container"
	"area-meter/internal/infrastructure/imagefile"
	"area-meter/internal/infrastructure/storage"
	"area-meter/internal/infrastructure/vision"
	"area-meter/internal/logger"
)

// Version задаётся через ldflags при сборке
var Version = "dev"

const usage = `area-meter - relative and absolute areas for dataset annotations

Usage:
  area-meter compute <dataset.json|yaml> [output]   update a dataset file
  area-meter bot                                    run the Telegram bot
  area-meter version                                print version

Environment variables (also read from .env):
  AREA_FIELDS              comma separated target fields (default: all)
  AREA_OVERWRITE           recompute existing areas (default: false)
  AREA_COORDINATE_SPACE    relative | absolute (default: relative)
  AREA_CONVERT_MASKS       trace detection masks into <field>_polylines
  AREA_MASK_THRESHOLD      mask foreground threshold, 0-254 (default: 0)
  AREA_COMPUTE_METADATA    read missing image sizes from files
  AREA_WORKERS             samples processed in parallel (default: 1)
  AREA_LOG_LEVEL           debug | info | warn | error (default: info)
  AREA_LOG_JSON            JSON log lines instead of console output
  TELEGRAM_TOKEN           bot token, required for "bot"
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "version", "--version", "-v":
		fmt.Printf("area-meter %s\n", Version)
		return
	case "help", "--help", "-h":
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, level, cfg.LogJSON)

	defaults, err := container.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Собираем зависимости
	codec := storage.NewCodec()
	images := imagefile.NewReader()
	appContainer := container.New(container.Deps{
		Sessions: storage.NewMemorySessionRepository(),
		Datasets: storage.NewFileDatasetRepository(codec),
		Codec:    codec,
		Tracer:   vision.NewContourTracer(),
		Metadata: images,
		Masks:    images,
	}, defaults, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := 2
	switch os.Args[1] {
	case "compute":
		code = runCompute(ctx, appContainer, log, os.Args[2:])
	case "bot":
		code = runBot(ctx, appContainer, log, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
	}
	stop()
	os.Exit(code)
}

func runCompute(ctx context.Context, c *container.Container, log zerolog.Logger, args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	in, out := args[0], ""
	if len(args) == 2 {
		out = args[1]
	}

	report, err := c.AreaService.ProcessFile(ctx, in, out, c.Defaults)
	if err != nil {
		log.Error().Err(err).Str("dataset", in).Msg("compute failed")
		return 1
	}
	fmt.Printf("samples: %d, updated: %d, skipped: %d, masks converted: %d, failed: %d\n",
		report.Samples, report.Updated, report.Skipped, report.Converted, len(report.Failures))
	if len(report.Failures) > 0 {
		return 3
	}
	return 0
}

func runBot(ctx context.Context, c *container.Container, log zerolog.Logger, cfg *config.Config) int {
	if cfg.TelegramToken == "" {
		log.Error().Msg("TELEGRAM_TOKEN is required")
		return 1
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, c, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to create bot")
		return 1
	}

	log.Info().Msg("bot is running")
	if err := bot.Run(ctx); err != nil {
		log.Error().Err(err).Msg("bot error")
		return 1
	}
	return 0
}
