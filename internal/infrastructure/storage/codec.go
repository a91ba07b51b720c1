package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"area-meter/internal/domain/entity"
	"area-meter/internal/domain/port"
)

// Format формат файла датасета
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf определяет формат по расширению имени файла.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported dataset file %q: want .json, .yaml or .yml", name)
}

// Codec кодирует датасеты в JSON и YAML
type Codec struct{}

// NewCodec создаёт кодек
func NewCodec() *Codec {
	return &Codec{}
}

// Decode разбирает датасет из data, формат берётся из name.
func (c *Codec) Decode(name string, data []byte) (*entity.Dataset, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var ds entity.Dataset
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&ds)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&ds)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s dataset %q: %w", format, name, err)
	}
	return &ds, nil
}

// Encode сериализует датасет, формат берётся из name.
func (c *Codec) Encode(name string, ds *entity.Dataset) ([]byte, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(ds)
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		err = enc.Encode(ds)
		if err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s dataset %q: %w", format, name, err)
	}
	return buf.Bytes(), nil
}

var _ port.DatasetCodec = (*Codec)(nil)
