package container

import (
	"github.com/rs/zerolog"

	"area-meter/config"
	app "area-meter/internal/application"
	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

type Container struct {
	SessionService *app.SessionService
	MaskService    *app.MaskService
	AreaService    *app.AreaService
	Defaults       app.Options
}

// Deps внешние зависимости сервисов
type Deps struct {
	Sessions port.SessionRepository
	Datasets port.DatasetRepository
	Codec    port.DatasetCodec
	Tracer   port.MaskTracer
	Metadata port.MetadataProvider
	Masks    port.MaskLoader
}

func New(deps Deps, defaults app.Options, log zerolog.Logger) *Container {
	maskService := app.NewMaskService(deps.Tracer, deps.Masks, log)
	areaService := app.NewAreaService(maskService, deps.Metadata, deps.Datasets, deps.Codec, log)

	return &Container{
		SessionService: app.NewSessionService(deps.Sessions, defaults),
		MaskService:    maskService,
		AreaService:    areaService,
		Defaults:       defaults,
	}
}

// OptionsFromConfig переводит конфигурацию в настройки расчёта и проверяет их.
func OptionsFromConfig(cfg *config.Config) (app.Options, error) {
	space, err := entity.ParseCoordinateSpace(cfg.CoordinateSpace)
	if err != nil {
		return app.Options{}, err
	}
	opts := app.Options{
		Fields:          cfg.Fields,
		Overwrite:       cfg.Overwrite,
		Space:           space,
		ConvertMasks:    cfg.ConvertMasks,
		MaskThreshold:   cfg.MaskThreshold,
		ComputeMetadata: cfg.ComputeMetadata,
		Workers:         cfg.Workers,
	}
	if err := opts.Validate(); err != nil {
		return app.Options{}, err
	}
	return opts, nil
}
