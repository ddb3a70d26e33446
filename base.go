// Package sqldantic turns one struct declaration into a validation model
// and, optionally, a persistence mapping. The sqld struct tag carries
// column settings, relationship settings and validation rules in a single
// namespace; Model compiles only the rules, Table additionally maps the
// type to a table in a shared metadata registry that can emit DDL and
// convert values for database/sql.
package sqldantic

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/aachurin/sqldantic/schema"
)

// Base compiles and holds model registrations. One Base owns one
// validator instance; bases constructed with a shared Metadata also share
// parsed schemas and the table registry.
type Base struct {
	*Config
	validate *validator.Validate
	mu       sync.RWMutex
	models   map[reflect.Type]*registration
}

type registration struct {
	schema *schema.Schema
	config ModelConfig
	table  bool
}

// ModelOption adjusts a single Model or Table registration.
type ModelOption func(*modelOptions)

type modelOptions struct {
	config       ModelConfig
	defaultFuncs map[string]func() interface{}
}

// WithModelConfig replaces the base's default ModelConfig for this
// registration.
func WithModelConfig(config ModelConfig) ModelOption {
	return func(o *modelOptions) { o.config = config }
}

// DefaultFunc attaches a default factory to the named field. The factory
// runs whenever defaults are applied and the field is still zero; a field
// cannot carry both a default literal and a factory.
func DefaultFunc(field string, fn func() interface{}) ModelOption {
	return func(o *modelOptions) {
		if o.defaultFuncs == nil {
			o.defaultFuncs = map[string]func() interface{}{}
		}
		o.defaultFuncs[field] = fn
	}
}

// NewBase initializes a Base with the given config; nil gets defaults.
func NewBase(config *Config) (*Base, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return &Base{
		Config:   config,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		models:   map[reflect.Type]*registration{},
	}, nil
}

// Model compiles dest's validation rules and registers the model with
// this base, without any table mapping.
func (b *Base) Model(dest interface{}, opts ...ModelOption) (*schema.Schema, error) {
	return b.register(dest, false, opts)
}

// MustModel is like Model but panics on error.
func (b *Base) MustModel(dest interface{}, opts ...ModelOption) *schema.Schema {
	s, err := b.Model(dest, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Table does everything Model does and maps the model to a table in the
// shared metadata registry. Registering a type with Table after an
// earlier Model call promotes it; the reverse order never demotes.
func (b *Base) Table(dest interface{}, opts ...ModelOption) (*schema.Schema, error) {
	return b.register(dest, true, opts)
}

// MustTable is like Table but panics on error.
func (b *Base) MustTable(dest interface{}, opts ...ModelOption) *schema.Schema {
	s, err := b.Table(dest, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Base) register(dest interface{}, table bool, opts []ModelOption) (*schema.Schema, error) {
	options := modelOptions{config: b.Config.ModelConfig}
	for _, opt := range opts {
		opt(&options)
	}

	sch, err := schema.Parse(dest, &b.Metadata.cache, b.Config.schemaOptions(options.config))
	if err != nil {
		return nil, err
	}

	for name, fn := range options.defaultFuncs {
		field, ok := sch.FieldsByName[name]
		if !ok {
			return nil, fmt.Errorf("sqldantic: %s has no field %q", sch.Name, name)
		}
		if field.HasDefaultValue {
			return nil, fmt.Errorf("%w: %s.%s has both a default and a default factory",
				ErrConflictingMarkers, sch.Name, name)
		}
		field.DefaultFunc = fn
		field.RefreshRule()
	}

	b.mu.Lock()
	reg, ok := b.models[sch.ModelType]
	if !ok {
		reg = &registration{schema: sch, config: options.config}
		b.models[sch.ModelType] = reg
		b.validate.RegisterStructValidationCtx(b.structValidation(sch), sch.MakeValue().Interface())
	}
	b.mu.Unlock()

	if table {
		if err := b.Metadata.register(sch); err != nil {
			return nil, err
		}
		b.mu.Lock()
		reg.table = true
		b.mu.Unlock()
	}

	return sch, nil
}

// structValidation evaluates the merged rule set against the declared
// field values. The type guard keeps an embedded base model from
// re-checking its unmerged rules when the outer model is validated.
func (b *Base) structValidation(sch *schema.Schema) validator.StructLevelFuncCtx {
	return func(ctx context.Context, sl validator.StructLevel) {
		topType := sl.Top().Type()
		for topType.Kind() == reflect.Ptr {
			topType = topType.Elem()
		}
		if sl.Current().Type() != topType {
			return
		}

		current := sl.Current()
		for name, rule := range sch.Rules {
			field, ok := sch.FieldsByName[name]
			if !ok {
				continue
			}
			value, _ := field.ValueOf(ctx, current)
			if err := b.validate.VarCtx(ctx, value, rule); err != nil {
				var verrs validator.ValidationErrors
				if errors.As(err, &verrs) {
					for _, ve := range verrs {
						sl.ReportError(value, field.Name, field.Name, ve.Tag(), ve.Param())
					}
				} else {
					sl.ReportError(value, field.Name, field.Name, "valid", "")
				}
			}
		}
	}
}

// Validate checks dest against its compiled rules. The model must have
// been registered on this base with Model or Table.
func (b *Base) Validate(ctx context.Context, dest interface{}) error {
	if _, err := b.registrationFor(dest); err != nil {
		return err
	}
	return b.validate.StructCtx(ctx, dest)
}

// ApplyDefaults fills dest's zero fields from default factories, parsed
// default literals and automatic timestamps. dest must be a non-nil
// pointer to a registered model.
func (b *Base) ApplyDefaults(ctx context.Context, dest interface{}) error {
	reg, err := b.registrationFor(dest)
	if err != nil {
		return err
	}
	value := reflect.ValueOf(dest)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("%w: want a non-nil pointer, got %T", ErrInvalidModelType, dest)
	}
	return reg.schema.ApplyDefaults(ctx, value)
}

// Schema returns the parsed schema of a registered model.
func (b *Base) Schema(dest interface{}) (*schema.Schema, error) {
	reg, err := b.registrationFor(dest)
	if err != nil {
		return nil, err
	}
	return reg.schema, nil
}

// Validator exposes the underlying validator so custom tags referenced
// from validate settings can be registered.
func (b *Base) Validator() *validator.Validate {
	return b.validate
}

func (b *Base) registrationFor(dest interface{}) (*registration, error) {
	if dest == nil {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidModelType, dest)
	}
	value := reflect.ValueOf(dest)
	if value.Kind() == reflect.Ptr && value.IsNil() {
		value = reflect.New(value.Type().Elem())
	}
	t := reflect.Indirect(value).Type()
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	b.mu.RLock()
	reg := b.models[t]
	b.mu.RUnlock()
	if reg == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	return reg, nil
}
