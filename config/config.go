package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken   string
	Fields          []string
	Overwrite       bool
	CoordinateSpace string
	ConvertMasks    bool
	MaskThreshold   uint8
	ComputeMetadata bool
	Workers         int
	LogLevel        string
	LogJSON         bool
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфигурацию из функции чтения переменных окружения.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:   getenv("TELEGRAM_TOKEN"),
		Fields:          splitList(getenv("AREA_FIELDS")),
		CoordinateSpace: getenv("AREA_COORDINATE_SPACE"),
		LogLevel:        getenv("AREA_LOG_LEVEL"),
		Workers:         1,
	}
	if cfg.CoordinateSpace == "" {
		cfg.CoordinateSpace = "relative"
	}

	var err error
	if cfg.Overwrite, err = parseBool(getenv, "AREA_OVERWRITE"); err != nil {
		return nil, err
	}
	if cfg.ConvertMasks, err = parseBool(getenv, "AREA_CONVERT_MASKS"); err != nil {
		return nil, err
	}
	if cfg.ComputeMetadata, err = parseBool(getenv, "AREA_COMPUTE_METADATA"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = parseBool(getenv, "AREA_LOG_JSON"); err != nil {
		return nil, err
	}

	if v := getenv("AREA_MASK_THRESHOLD"); v != "" {
		t, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("AREA_MASK_THRESHOLD: %w", err)
		}
		if t == 255 {
			return nil, fmt.Errorf("AREA_MASK_THRESHOLD: %d leaves no foreground, use 0-254", t)
		}
		cfg.MaskThreshold = uint8(t)
	}
	if v := getenv("AREA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("AREA_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

func parseBool(getenv func(string) string, key string) (bool, error) {
	v := getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
