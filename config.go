package sqldantic

import (
	"fmt"
	"reflect"

	"github.com/aachurin/sqldantic/logger"
	"github.com/aachurin/sqldantic/schema"
	"github.com/aachurin/sqldantic/sqltype"
)

// Config configures a Base. The zero value is usable: it gets a fresh
// metadata registry, the default naming strategy and type map, and a
// warn-level logger.
type Config struct {
	// Metadata shares one table registry and schema cache between bases,
	// nil gets a private one
	Metadata *Metadata
	// TypeMap overrides the storage type per Go type, entries are merged
	// over schema.DefaultTypeMap
	TypeMap map[reflect.Type]sqltype.Type
	// JSONType is the storage type for composite and collection fields,
	// nil uses sqltype.JSON
	JSONType sqltype.Type
	// StructCodec names the codec serializing composite and collection
	// fields, empty uses json
	StructCodec string
	// NamingStrategy derives table, column and constraint names, nil uses
	// schema.NamingStrategy
	NamingStrategy schema.Namer
	// Logger
	Logger logger.Interface
	// DisableForeignKeyConstraints omits FOREIGN KEY clauses from DDL
	DisableForeignKeyConstraints bool
	// ModelConfig is the default per-model behavior, overridable per
	// registration with WithModelConfig
	ModelConfig ModelConfig
}

// ModelConfig tunes validation behavior for one model registration.
type ModelConfig struct {
	// SkipValidateOnBind skips validation inside BindValues
	SkipValidateOnBind bool
	// SkipValidateOnScan skips validation after ScanRow fills a model
	SkipValidateOnScan bool
	// RequireByDefault marks every field required unless it is nullable,
	// defaulted, auto-timestamped or a relation
	RequireByDefault bool
}

func (c *Config) normalize() error {
	if c.Logger == nil {
		c.Logger = logger.Default
	}
	if c.NamingStrategy == nil {
		c.NamingStrategy = schema.NamingStrategy{IdentifierMaxLength: 64}
	}
	if c.JSONType == nil {
		c.JSONType = sqltype.JSON{}
	}
	if c.StructCodec == "" {
		c.StructCodec = "json"
	}
	if _, ok := schema.GetCodec(c.StructCodec); !ok {
		return fmt.Errorf("%w: struct codec %q", ErrCodecNotFound, c.StructCodec)
	}
	typeMap := schema.DefaultTypeMap()
	for t, st := range c.TypeMap {
		if st == nil {
			return fmt.Errorf("%w: nil storage type for %s", ErrUnsupportedType, t)
		}
		typeMap[t] = st
	}
	c.TypeMap = typeMap
	if c.Metadata == nil {
		c.Metadata = NewMetadata()
	}
	return nil
}

// schemaOptions translates base configuration into schema parse options.
func (c *Config) schemaOptions(mc ModelConfig) schema.Options {
	return schema.Options{
		Namer:            c.NamingStrategy,
		TypeMap:          c.TypeMap,
		JSONType:         c.JSONType,
		StructCodec:      c.StructCodec,
		RequireByDefault: mc.RequireByDefault,
	}
}
