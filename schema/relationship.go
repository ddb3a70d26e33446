package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jinzhu/inflection"
)

// RelationshipType relationship type
type RelationshipType string

const (
	HasOne    RelationshipType = "has_one"
	HasMany   RelationshipType = "has_many"
	BelongsTo RelationshipType = "belongs_to"
	Many2Many RelationshipType = "many_to_many"
	has       RelationshipType = "has"
)

type Relationships struct {
	HasOne    []*Relationship
	BelongsTo []*Relationship
	HasMany   []*Relationship
	Many2Many []*Relationship
	Relations map[string]*Relationship
}

type Relationship struct {
	Name                     string
	Type                     RelationshipType
	Field                    *Field
	References               []Reference
	Schema                   *Schema
	FieldSchema              *Schema
	JoinTable                *Schema
	BackPopulates            string
	foreignKeys, primaryKeys []string
}

type Reference struct {
	PrimaryKey    *Field
	ForeignKey    *Field
	OwnPrimaryKey bool
}

// guessLevel controls relationship direction resolution; only the auto
// level is allowed to flip from has to belongs-to.
type guessLevel int

const (
	guessAuto guessLevel = iota
	guessHas
	guessBelongs
)

func (schema *Schema) parseRelation(field *Field) {
	var (
		err        error
		fieldValue = reflect.New(field.IndirectFieldType).Interface()
		relation   = &Relationship{
			Name:        field.Name,
			Field:       field,
			Schema:      schema,
			foreignKeys: toColumns(field.TagSettings["FOREIGNKEY"]),
			primaryKeys: toColumns(field.TagSettings["REFERENCES"]),
		}
	)

	if relation.FieldSchema, err = getOrParse(fieldValue, schema.cacheStore, schema.opts); err != nil {
		schema.err = fmt.Errorf("%w: %s.%s: %v", ErrInvalidRelation, schema.Name, field.Name, err)
		return
	}

	kind := field.IndirectFieldType.Kind()
	relTag := field.TagSettings["REL"]
	if strings.EqualFold(relTag, "rel") {
		// bare `rel` means guess the direction
		relTag = ""
	}

	if many2many, ok := field.TagSettings["MANY2MANY"]; ok {
		if many2many == "" || strings.EqualFold(many2many, "many2many") || kind != reflect.Slice {
			schema.err = fmt.Errorf("%w: %s.%s many2many needs a join table name on a slice field",
				ErrInvalidRelation, schema.Name, field.Name)
			return
		}
		schema.buildMany2ManyRelation(relation, field, many2many)
	} else {
		switch {
		case strings.EqualFold(relTag, "hasOne"):
			if kind != reflect.Struct {
				schema.err = fmt.Errorf("%w: %s.%s hasOne needs a struct field", ErrInvalidRelation, schema.Name, field.Name)
				return
			}
			schema.guessRelation(relation, field, guessHas)
		case strings.EqualFold(relTag, "hasMany"):
			if kind != reflect.Slice {
				schema.err = fmt.Errorf("%w: %s.%s hasMany needs a slice field", ErrInvalidRelation, schema.Name, field.Name)
				return
			}
			schema.guessRelation(relation, field, guessHas)
		case strings.EqualFold(relTag, "belongsTo"):
			if kind != reflect.Struct {
				schema.err = fmt.Errorf("%w: %s.%s belongsTo needs a struct field", ErrInvalidRelation, schema.Name, field.Name)
				return
			}
			schema.guessRelation(relation, field, guessBelongs)
		case relTag == "":
			switch kind {
			case reflect.Struct:
				schema.guessRelation(relation, field, guessAuto)
			case reflect.Slice:
				schema.guessRelation(relation, field, guessHas)
			default:
				schema.err = fmt.Errorf("%w: unsupported type %s for %s.%s",
					ErrInvalidRelation, relation.FieldSchema, schema.Name, field.Name)
				return
			}
		default:
			schema.err = fmt.Errorf("%w: %s.%s has rel %q, want hasOne, hasMany or belongsTo",
				ErrInvalidRelation, schema.Name, field.Name, relTag)
			return
		}
	}

	if relation.Type == has {
		switch kind {
		case reflect.Struct:
			relation.Type = HasOne
		case reflect.Slice:
			relation.Type = HasMany
		}
	}

	if schema.err == nil {
		schema.checkBackPopulates(relation, field)
	}

	if schema.err == nil {
		schema.Relationships.Relations[relation.Name] = relation
		switch relation.Type {
		case HasOne:
			schema.Relationships.HasOne = append(schema.Relationships.HasOne, relation)
		case HasMany:
			schema.Relationships.HasMany = append(schema.Relationships.HasMany, relation)
		case BelongsTo:
			schema.Relationships.BelongsTo = append(schema.Relationships.BelongsTo, relation)
		case Many2Many:
			schema.Relationships.Many2Many = append(schema.Relationships.Many2Many, relation)
		}
	}
}

// checkBackPopulates verifies that the named inverse field exists on the
// related model and points back at this model type. It deliberately looks
// at the field, not the resolved relation, so mutually referencing models
// can still be mid-parse.
func (schema *Schema) checkBackPopulates(relation *Relationship, field *Field) {
	back, ok := field.TagSettings["BACKPOPULATES"]
	if !ok || back == "" || strings.EqualFold(back, "backpopulates") {
		return
	}
	relation.BackPopulates = back

	inverse, ok := relation.FieldSchema.FieldsByName[back]
	if !ok || inverse.Kind != KindRelation {
		schema.err = fmt.Errorf("%w: %s.%s names %s.%s, which is not a relation field",
			ErrInvalidBackPopulates, schema.Name, field.Name, relation.FieldSchema.Name, back)
		return
	}

	inverseType := inverse.IndirectFieldType
	for inverseType.Kind() == reflect.Slice || inverseType.Kind() == reflect.Array || inverseType.Kind() == reflect.Ptr {
		inverseType = inverseType.Elem()
	}
	if inverseType != schema.ModelType {
		schema.err = fmt.Errorf("%w: %s.%s names %s.%s, which refers to %s",
			ErrInvalidBackPopulates, schema.Name, field.Name, relation.FieldSchema.Name, back, inverseType.Name())
	}
}

func (schema *Schema) buildMany2ManyRelation(relation *Relationship, field *Field, many2many string) {
	relation.Type = Many2Many

	var (
		err             error
		joinTableFields []reflect.StructField
		fieldsMap       = map[string]*Field{}
		ownFieldsMap    = map[string]bool{} // fix self join many2many
	)

	for _, s := range []*Schema{schema, relation.FieldSchema} {
		for _, primaryField := range s.PrimaryFields {
			fieldName := s.Name + primaryField.Name
			if _, ok := fieldsMap[fieldName]; ok {
				if field.Name != s.Name {
					fieldName = inflection.Singular(field.Name) + primaryField.Name
				} else {
					fieldName = s.Name + primaryField.Name + "Reference"
				}
			} else {
				ownFieldsMap[fieldName] = true
			}

			fieldsMap[fieldName] = primaryField
			joinTableFields = append(joinTableFields, reflect.StructField{
				Name:    fieldName,
				PkgPath: primaryField.StructField.PkgPath,
				Type:    primaryField.StructField.Type,
				Tag: removeSettingFromTag(appendSettingFromTag(primaryField.StructField.Tag, "primaryKey"),
					"column", "autoincrement", "default", "index", "unique", "uniqueindex", "required"),
			})
		}
	}

	if relation.JoinTable, err = getOrParse(reflect.New(reflect.StructOf(joinTableFields)).Interface(), schema.cacheStore, schema.opts); err != nil {
		schema.err = fmt.Errorf("%w: %s.%s join table: %v", ErrInvalidRelation, schema.Name, field.Name, err)
		return
	}
	relation.JoinTable.Name = many2many
	relation.JoinTable.Table = schema.namer.JoinTableName(many2many)

	// build references
	for _, f := range relation.JoinTable.Fields {
		relation.References = append(relation.References, Reference{
			PrimaryKey:    fieldsMap[f.Name],
			ForeignKey:    f,
			OwnPrimaryKey: schema == fieldsMap[f.Name].Schema && ownFieldsMap[f.Name],
		})
	}
}

func (schema *Schema) guessRelation(relation *Relationship, field *Field, gl guessLevel) {
	var (
		primaryFields, foreignFields []*Field
		primarySchema, foreignSchema = schema, relation.FieldSchema
		asHas                        = gl != guessBelongs
	)

	if !asHas {
		primarySchema, foreignSchema = relation.FieldSchema, schema
	}

	reguessOrErr := func(err string, args ...interface{}) {
		if gl == guessAuto {
			schema.guessRelation(relation, field, guessBelongs)
		} else {
			schema.err = fmt.Errorf("%w: "+err, append([]interface{}{ErrInvalidRelation}, args...)...)
		}
	}

	if len(relation.foreignKeys) > 0 {
		for _, foreignKey := range relation.foreignKeys {
			if f := foreignSchema.LookUpField(foreignKey); f != nil {
				foreignFields = append(foreignFields, f)
			} else {
				reguessOrErr("unsupported relations %v for %v on field %v with foreign keys %v",
					relation.FieldSchema, schema, field.Name, relation.foreignKeys)
				return
			}
		}
	} else {
		for _, primaryField := range primarySchema.PrimaryFields {
			lookUpName := schema.Name + primaryField.Name
			if !asHas {
				lookUpName = field.Name + primaryField.Name
			}

			if f := foreignSchema.LookUpField(lookUpName); f != nil {
				foreignFields = append(foreignFields, f)
				primaryFields = append(primaryFields, primaryField)
			}
		}
	}

	if len(foreignFields) == 0 {
		reguessOrErr("failed to guess %v's relations with %v's field %v, define foreignKey or references",
			relation.FieldSchema, schema, field.Name)
		return
	} else if len(relation.primaryKeys) > 0 {
		for idx, primaryKey := range relation.primaryKeys {
			if f := primarySchema.LookUpField(primaryKey); f != nil {
				if len(primaryFields) < idx+1 {
					primaryFields = append(primaryFields, f)
				} else if f != primaryFields[idx] {
					reguessOrErr("unsupported relations %v for %v on field %v with references %v",
						relation.FieldSchema, schema, field.Name, relation.primaryKeys)
					return
				}
			} else {
				reguessOrErr("unsupported relations %v for %v on field %v with references %v",
					relation.FieldSchema, schema, field.Name, relation.primaryKeys)
				return
			}
		}
	} else if len(primaryFields) == 0 {
		if len(foreignFields) == 1 && primarySchema.PrioritizedPrimaryField != nil {
			primaryFields = append(primaryFields, primarySchema.PrioritizedPrimaryField)
		} else if len(primarySchema.PrimaryFields) == len(foreignFields) {
			primaryFields = append(primaryFields, primarySchema.PrimaryFields...)
		} else {
			reguessOrErr("unsupported relations %v for %v on field %v",
				relation.FieldSchema, schema, field.Name)
			return
		}
	}

	// build references
	relation.References = nil
	for idx, foreignField := range foreignFields {
		relation.References = append(relation.References, Reference{
			PrimaryKey:    primaryFields[idx],
			ForeignKey:    foreignField,
			OwnPrimaryKey: schema == primarySchema && asHas,
		})
	}

	if asHas {
		relation.Type = has
	} else {
		relation.Type = BelongsTo
	}
}

// Constraint is a FOREIGN KEY clause owned by Schema's table.
type Constraint struct {
	Name            string
	Field           *Field
	Schema          *Schema
	ForeignKeys     []*Field
	ReferenceSchema *Schema
	References      []*Field
	OnDelete        string
	OnUpdate        string
}

// ParseConstraint derives the foreign key constraint of a hasOne, hasMany
// or belongsTo relation. The constraint lives on whichever table holds
// the foreign key columns. Many-to-many relations get their constraints
// from JoinConstraints instead.
func (rel *Relationship) ParseConstraint() *Constraint {
	if rel.JoinTable != nil {
		return nil
	}

	constraint := Constraint{
		Name:     rel.Schema.namer.RelationshipFKName(*rel),
		Field:    rel.Field,
		OnDelete: rel.Field.TagSettings["ONDELETE"],
		OnUpdate: rel.Field.TagSettings["ONUPDATE"],
		Schema:   rel.Schema,
	}

	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			continue
		}
		constraint.Schema = ref.ForeignKey.Schema
		constraint.ForeignKeys = append(constraint.ForeignKeys, ref.ForeignKey)
		constraint.References = append(constraint.References, ref.PrimaryKey)
		constraint.ReferenceSchema = ref.PrimaryKey.Schema
	}

	if constraint.ReferenceSchema == nil {
		return nil
	}

	return &constraint
}

// JoinConstraints derives one foreign key constraint per side of a
// many-to-many join table.
func (rel *Relationship) JoinConstraints() []*Constraint {
	if rel.JoinTable == nil {
		return nil
	}

	var (
		out      []*Constraint
		bySchema = map[*Schema]*Constraint{}
	)
	for _, ref := range rel.References {
		if ref.PrimaryKey == nil || ref.ForeignKey == nil {
			continue
		}
		side := ref.PrimaryKey.Schema
		constraint, ok := bySchema[side]
		if !ok {
			constraint = &Constraint{
				Name: rel.Schema.namer.RelationshipFKName(Relationship{
					Schema: rel.JoinTable,
					Name:   side.Table,
				}),
				Field:           rel.Field,
				Schema:          rel.JoinTable,
				ReferenceSchema: side,
				OnDelete:        rel.Field.TagSettings["ONDELETE"],
				OnUpdate:        rel.Field.TagSettings["ONUPDATE"],
			}
			bySchema[side] = constraint
			out = append(out, constraint)
		}
		constraint.ForeignKeys = append(constraint.ForeignKeys, ref.ForeignKey)
		constraint.References = append(constraint.References, ref.PrimaryKey)
	}
	return out
}
