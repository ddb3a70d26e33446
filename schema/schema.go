package schema

import (
	"context"
	"fmt"
	"go/ast"
	"reflect"
	"sync"
	"time"

	"github.com/aachurin/sqldantic/sqltype"
)

// embeddedCacheKey marks a cache store used to parse an embedded struct,
// so relationship resolution is left to the outer schema.
const embeddedCacheKey = "embedded_cache_store"

// Options control how a model type is parsed into a Schema. The zero
// value is normalized to the default naming strategy, type map and json
// codec.
type Options struct {
	Namer            Namer
	TypeMap          map[reflect.Type]sqltype.Type
	JSONType         sqltype.Type
	StructCodec      string
	RequireByDefault bool
}

func (opts Options) normalize() Options {
	if opts.Namer == nil {
		opts.Namer = NamingStrategy{IdentifierMaxLength: 64}
	}
	typeMap := DefaultTypeMap()
	for t, st := range opts.TypeMap {
		if st != nil {
			typeMap[t] = st
		}
	}
	opts.TypeMap = typeMap
	if opts.JSONType == nil {
		opts.JSONType = sqltype.JSON{}
	}
	if opts.StructCodec == "" {
		opts.StructCodec = "json"
	}
	return opts
}

// Schema is the parsed descriptor of one model type: its merged field
// set, primary key, relationships and validation rules.
type Schema struct {
	Name                    string
	ModelType               reflect.Type
	Table                   string
	PrioritizedPrimaryField *Field
	DBNames                 []string
	PrimaryFields           []*Field
	PrimaryFieldDBNames     []string
	Fields                  []*Field
	FieldsByName            map[string]*Field
	FieldsByDBName          map[string]*Field
	Relationships           Relationships
	Rules                   map[string]string
	err                     error
	initialized             chan struct{}
	namer                   Namer
	cacheStore              *sync.Map
	opts                    Options
}

func (schema Schema) String() string {
	if schema.ModelType.Name() == "" {
		return fmt.Sprintf("%s(%s)", schema.Name, schema.Table)
	}
	return fmt.Sprintf("%s.%s", schema.ModelType.PkgPath(), schema.ModelType.Name())
}

// Namer returns the naming strategy the schema was parsed with.
func (schema *Schema) Namer() Namer {
	return schema.namer
}

// LookUpField finds a field by database name first, then by Go name.
func (schema *Schema) LookUpField(name string) *Field {
	if field, ok := schema.FieldsByDBName[name]; ok {
		return field
	}
	if field, ok := schema.FieldsByName[name]; ok {
		return field
	}
	return nil
}

// FieldNames returns the merged field names in declaration order, columns
// and relationships alike. Validation rules and column mappings are both
// views over this set.
func (schema *Schema) FieldNames() []string {
	names := make([]string, 0, len(schema.Fields))
	seen := make(map[string]bool, len(schema.Fields))
	for _, field := range schema.Fields {
		if !field.Creatable && !field.Updatable && !field.Readable {
			continue
		}
		if schema.FieldsByName[field.Name] != field || seen[field.Name] {
			continue
		}
		seen[field.Name] = true
		names = append(names, field.Name)
	}
	return names
}

// Parse resolves dest's type into a Schema, caching it in cacheStore.
// Concurrent calls for the same type block until the first one finishes.
func Parse(dest interface{}, cacheStore *sync.Map, opts Options) (*Schema, error) {
	if dest == nil {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidModelType, dest)
	}

	value := reflect.ValueOf(dest)
	if value.Kind() == reflect.Ptr && value.IsNil() {
		value = reflect.New(value.Type().Elem())
	}
	modelType := reflect.Indirect(value).Type()

	for modelType.Kind() == reflect.Slice || modelType.Kind() == reflect.Array || modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	if modelType.Kind() != reflect.Struct {
		if modelType.PkgPath() == "" {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidModelType, dest)
		}
		return nil, fmt.Errorf("%w: %s.%s", ErrInvalidModelType, modelType.PkgPath(), modelType.Name())
	}

	if v, ok := cacheStore.Load(modelType); ok {
		s := v.(*Schema)
		// Wait for the initialization of other goroutines to complete
		<-s.initialized
		return s, s.err
	}

	opts = opts.normalize()

	modelValue := reflect.New(modelType)
	tableName := opts.Namer.TableName(modelType.Name())
	if tabler, ok := modelValue.Interface().(Tabler); ok {
		tableName = tabler.TableName()
	}
	if en, ok := opts.Namer.(embeddedNamer); ok {
		tableName = en.Table
	}

	schema := &Schema{
		Name:           modelType.Name(),
		ModelType:      modelType,
		Table:          tableName,
		FieldsByName:   map[string]*Field{},
		FieldsByDBName: map[string]*Field{},
		Rules:          map[string]string{},
		Relationships:  Relationships{Relations: map[string]*Relationship{}},
		cacheStore:     cacheStore,
		namer:          opts.Namer,
		opts:           opts,
		initialized:    make(chan struct{}),
	}
	// Schema will be cached in a moment; unblock waiters no matter how
	// parsing ends.
	defer close(schema.initialized)

	for i := 0; i < modelType.NumField(); i++ {
		if fieldStruct := modelType.Field(i); ast.IsExported(fieldStruct.Name) {
			if field := schema.ParseField(fieldStruct); field.EmbeddedSchema != nil {
				schema.Fields = append(schema.Fields, field.EmbeddedSchema.Fields...)
			} else {
				schema.Fields = append(schema.Fields, field)
			}
		}
		if schema.err != nil {
			return nil, schema.err
		}
	}

	for _, field := range schema.Fields {
		if field.DBName == "" && field.Kind != KindRelation && (field.Creatable || field.Updatable || field.Readable) {
			field.DBName = opts.Namer.ColumnName(schema.Table, field.Name)
		}

		if field.DBName != "" {
			// nonexistence or shortest depth or first appearance prioritized if has permission
			if v, ok := schema.FieldsByDBName[field.DBName]; !ok || ((field.Creatable || field.Updatable || field.Readable) && len(field.BindNames) < len(v.BindNames)) {
				if !ok {
					schema.DBNames = append(schema.DBNames, field.DBName)
				}
				schema.FieldsByDBName[field.DBName] = field
				schema.FieldsByName[field.Name] = field

				if v != nil && v.PrimaryKey {
					for idx, f := range schema.PrimaryFields {
						if f == v {
							schema.PrimaryFields = append(schema.PrimaryFields[0:idx], schema.PrimaryFields[idx+1:]...)
						}
					}
				}

				if field.PrimaryKey {
					schema.PrimaryFields = append(schema.PrimaryFields, field)
				}
			}
		}

		if of, ok := schema.FieldsByName[field.Name]; !ok || (!of.Creatable && !of.Updatable && !of.Readable) {
			schema.FieldsByName[field.Name] = field
		}

		field.setupValuerAndSetter()
	}

	if field := schema.LookUpField("id"); field != nil {
		if field.PrimaryKey {
			schema.PrioritizedPrimaryField = field
		} else if len(schema.PrimaryFields) == 0 {
			field.PrimaryKey = true
			schema.PrioritizedPrimaryField = field
			schema.PrimaryFields = append(schema.PrimaryFields, field)
			field.buildValidationRule()
		}
	}

	for _, field := range schema.PrimaryFields {
		schema.PrimaryFieldDBNames = append(schema.PrimaryFieldDBNames, field.DBName)
	}

	if schema.PrioritizedPrimaryField == nil && len(schema.PrimaryFields) == 1 {
		schema.PrioritizedPrimaryField = schema.PrimaryFields[0]
	}

	// A single integer primary key auto-increments unless the tag says
	// otherwise.
	if field := schema.PrioritizedPrimaryField; field != nil && len(schema.PrimaryFields) == 1 {
		if field.DataType == Int || field.DataType == Uint {
			if _, ok := field.TagSettings["AUTOINCREMENT"]; !ok && !field.HasDefaultValue {
				field.AutoIncrement = true
				field.HasDefaultValue = true
				field.buildValidationRule()
			}
		}
	}

	// Cache the schema before relationships are resolved so mutual and
	// self references terminate.
	if v, loaded := cacheStore.LoadOrStore(modelType, schema); loaded {
		s := v.(*Schema)
		<-s.initialized
		return s, s.err
	}

	defer func() {
		if schema.err != nil {
			cacheStore.Delete(modelType)
		}
	}()

	if _, embedded := schema.cacheStore.Load(embeddedCacheKey); !embedded {
		for _, field := range schema.Fields {
			if field.Kind == KindRelation && (field.Creatable || field.Updatable || field.Readable) {
				if schema.parseRelation(field); schema.err != nil {
					return schema, schema.err
				}
			}
		}
	}

	schema.buildRules()

	return schema, schema.err
}

// getOrParse returns the cached schema without waiting for relationship
// resolution to finish, which keeps mutually referencing models from
// deadlocking.
func getOrParse(dest interface{}, cacheStore *sync.Map, opts Options) (*Schema, error) {
	modelType := reflect.ValueOf(dest).Type()
	for modelType.Kind() == reflect.Slice || modelType.Kind() == reflect.Array || modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	if modelType.Kind() != reflect.Struct {
		if modelType.PkgPath() == "" {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidModelType, dest)
		}
		return nil, fmt.Errorf("%w: %s.%s", ErrInvalidModelType, modelType.PkgPath(), modelType.Name())
	}

	if v, ok := cacheStore.Load(modelType); ok {
		return v.(*Schema), nil
	}

	return Parse(dest, cacheStore, opts)
}

// ApplyDefaults fills zero-valued fields of value from default factories,
// parsed default literals and automatic timestamps, in column order.
// Database-side expression defaults are left alone so the engine applies
// them.
func (schema *Schema) ApplyDefaults(ctx context.Context, value reflect.Value) error {
	for _, dbName := range schema.DBNames {
		field := schema.FieldsByDBName[dbName]
		if _, zero := field.ValueOf(ctx, value); !zero {
			continue
		}
		switch {
		case field.DefaultFunc != nil:
			if err := field.Set(ctx, value, field.DefaultFunc()); err != nil {
				return fmt.Errorf("default factory for %s.%s: %w", schema.Name, field.Name, err)
			}
		case field.DefaultValueInterface != nil:
			if err := field.Set(ctx, value, field.DefaultValueInterface); err != nil {
				return fmt.Errorf("default for %s.%s: %w", schema.Name, field.Name, err)
			}
		case field.AutoCreateTime != 0 || field.AutoUpdateTime != 0:
			if err := field.Set(ctx, value, time.Now()); err != nil {
				return fmt.Errorf("timestamp for %s.%s: %w", schema.Name, field.Name, err)
			}
		}
	}
	return nil
}

// MakeValue returns an addressable zero value of the model type.
func (schema *Schema) MakeValue() reflect.Value {
	return reflect.New(schema.ModelType).Elem()
}
