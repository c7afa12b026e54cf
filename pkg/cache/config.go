package cache

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// FieldConfig is one schema column, as written in an endpoint's YAML
// config (SPEC_FULL.md §10.3).
type FieldConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
}

// SchemaConfig is the YAML-facing mirror of record.Schema.
type SchemaConfig struct {
	Fields       []FieldConfig `yaml:"fields"`
	PrimaryIndex []int         `yaml:"primary_index,omitempty"`
}

// EnvConfig mirrors the subset of kv.Options an operator can tune per
// endpoint (SPEC_FULL.md §10.3); everything else keeps kv.DefaultOptions.
type EnvConfig struct {
	MapSize    int64 `yaml:"map_size,omitempty"`
	MaxReaders int   `yaml:"max_readers,omitempty"`
	NoSync     bool  `yaml:"no_sync,omitempty"`
}

// EndpointConfig is the persisted, immutable-after-open description of
// one cache endpoint (SPEC_FULL.md §10.3).
type EndpointConfig struct {
	Name           string       `yaml:"name"`
	Schema         SchemaConfig `yaml:"schema"`
	AppendOnly     bool         `yaml:"append_only,omitempty"`
	Env            EnvConfig    `yaml:"env,omitempty"`
	BatchSize      int          `yaml:"batch_size,omitempty"`
	ChannelBuffer  int          `yaml:"channel_buffer,omitempty"`
	SourceTableIdx int          `yaml:"source_table_index,omitempty"`
}

// LoadEndpointConfig reads and parses an EndpointConfig from path.
func LoadEndpointConfig(path string) (EndpointConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EndpointConfig{}, fmt.Errorf("cache: reading config %s: %w", path, err)
	}
	var cfg EndpointConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EndpointConfig{}, fmt.Errorf("cache: parsing config %s: %w", path, err)
	}
	if cfg.Name == "" {
		return EndpointConfig{}, fmt.Errorf("cache: config %s missing required field name", path)
	}
	return cfg, nil
}

var fieldTypeNames = map[string]record.FieldType{
	"uint":      record.FieldTypeUInt,
	"u128":      record.FieldTypeU128,
	"int":       record.FieldTypeInt,
	"i128":      record.FieldTypeI128,
	"float":     record.FieldTypeFloat,
	"boolean":   record.FieldTypeBoolean,
	"string":    record.FieldTypeString,
	"text":      record.FieldTypeText,
	"binary":    record.FieldTypeBinary,
	"decimal":   record.FieldTypeDecimal,
	"timestamp": record.FieldTypeTimestamp,
	"date":      record.FieldTypeDate,
	"bson":      record.FieldTypeBson,
	"point":     record.FieldTypePoint,
	"duration":  record.FieldTypeDuration,
}

// Schema converts the YAML-facing SchemaConfig into a record.Schema,
// validating it in the process.
func (c EndpointConfig) Schema() (record.Schema, error) {
	fields := make([]record.FieldDefinition, len(c.Schema.Fields))
	for i, f := range c.Schema.Fields {
		t, ok := fieldTypeNames[f.Type]
		if !ok {
			return record.Schema{}, fmt.Errorf("cache: unrecognized field type %q for field %q", f.Type, f.Name)
		}
		fields[i] = record.FieldDefinition{Name: f.Name, Type: t, Nullable: f.Nullable}
	}
	schema := record.Schema{Fields: fields, PrimaryIndex: c.Schema.PrimaryIndex}
	if err := schema.Validate(); err != nil {
		return record.Schema{}, fmt.Errorf("cache: invalid schema for endpoint %q: %w", c.Name, err)
	}
	return schema, nil
}
