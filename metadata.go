package sqldantic

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aachurin/sqldantic/schema"
)

// Metadata is the shared table registry: every Table registration lands
// here, join tables included. It also owns the schema cache, so bases
// sharing a Metadata parse every model type exactly once.
type Metadata struct {
	mu     sync.RWMutex
	tables map[string]*schema.Schema
	order  []string
	cache  sync.Map
}

// NewMetadata returns an empty registry.
func NewMetadata() *Metadata {
	return &Metadata{tables: map[string]*schema.Schema{}}
}

func (m *Metadata) register(sch *schema.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.registerLocked(sch); err != nil {
		return err
	}
	for _, rel := range sch.Relationships.Many2Many {
		if rel.JoinTable != nil {
			if err := m.registerLocked(rel.JoinTable); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Metadata) registerLocked(sch *schema.Schema) error {
	existing, ok := m.tables[sch.Table]
	if !ok {
		m.tables[sch.Table] = sch
		m.order = append(m.order, sch.Table)
		return nil
	}
	if existing == sch || existing.ModelType == sch.ModelType {
		return nil
	}
	// Both sides of a many2many synthesize their own join schema; equal
	// column sets mean it is the same join table.
	if sameColumns(existing, sch) {
		return nil
	}
	return fmt.Errorf("%w: %q claimed by %v and %v", ErrTableRedefined, sch.Table, existing, sch)
}

func sameColumns(a, b *schema.Schema) bool {
	if len(a.DBNames) != len(b.DBNames) {
		return false
	}
	names := make(map[string]bool, len(a.DBNames))
	for _, n := range a.DBNames {
		names[n] = true
	}
	for _, n := range b.DBNames {
		if !names[n] {
			return false
		}
	}
	return true
}

// Tables returns registered schemas in registration order.
func (m *Metadata) Tables() []*schema.Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*schema.Schema, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.tables[name])
	}
	return out
}

// Table looks up a registered schema by table name.
func (m *Metadata) Table(name string) (*schema.Schema, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sch, ok := m.tables[name]
	return sch, ok
}

// constraints collects every foreign key constraint of the registry,
// keyed by the table owning the constraint. Inverse relation pairs and
// both sides of a join table yield the same clause; duplicates are
// dropped by column set. Field-level foreignKey settings are resolved
// here, and a target nobody registered fails with
// ErrUnknownForeignTable.
func (m *Metadata) constraints() (map[string][]*schema.Constraint, error) {
	tables := m.Tables()

	var candidates []*schema.Constraint
	for _, sch := range tables {
		relNames := make([]string, 0, len(sch.Relationships.Relations))
		for name := range sch.Relationships.Relations {
			relNames = append(relNames, name)
		}
		sort.Strings(relNames)

		for _, name := range relNames {
			rel := sch.Relationships.Relations[name]
			if c := rel.ParseConstraint(); c != nil {
				candidates = append(candidates, c)
			}
			candidates = append(candidates, rel.JoinConstraints()...)
		}

		for _, dbName := range sch.DBNames {
			field := sch.FieldsByDBName[dbName]
			if field.ForeignTable == "" {
				continue
			}
			target, ok := m.Table(field.ForeignTable)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s references %q",
					ErrUnknownForeignTable, sch.Name, field.Name, field.ForeignTable)
			}
			ref := target.LookUpField(field.ForeignColumn)
			if ref == nil {
				return nil, fmt.Errorf("%w: %s.%s references %s.%s",
					ErrUnknownForeignTable, sch.Name, field.Name, field.ForeignTable, field.ForeignColumn)
			}
			candidates = append(candidates, &schema.Constraint{
				Name:            sch.Namer().RelationshipFKName(schema.Relationship{Schema: sch, Name: field.Name}),
				Field:           field,
				Schema:          sch,
				ForeignKeys:     []*schema.Field{field},
				ReferenceSchema: target,
				References:      []*schema.Field{ref},
				OnDelete:        field.TagSettings["ONDELETE"],
				OnUpdate:        field.TagSettings["ONUPDATE"],
			})
		}
	}

	var (
		out  = map[string][]*schema.Constraint{}
		seen = map[string]bool{}
	)
	for _, c := range candidates {
		if _, ok := m.Table(c.Schema.Table); !ok {
			return nil, fmt.Errorf("%w: %v holds a foreign key but is not registered as a table",
				ErrUnknownForeignTable, c.Schema)
		}
		if _, ok := m.Table(c.ReferenceSchema.Table); !ok {
			return nil, fmt.Errorf("%w: %v is referenced but not registered as a table",
				ErrUnknownForeignTable, c.ReferenceSchema)
		}
		key := c.Schema.Table + "->" + c.ReferenceSchema.Table + "("
		for _, f := range c.ForeignKeys {
			key += f.DBName + ","
		}
		key += ")"
		if seen[key] {
			continue
		}
		seen[key] = true
		out[c.Schema.Table] = append(out[c.Schema.Table], c)
	}

	return out, nil
}

// Sorted returns registered schemas ordered so every table comes after
// the tables its foreign keys reference. Self references are ignored and
// reference cycles fall back to registration order.
func (m *Metadata) Sorted() ([]*schema.Schema, error) {
	tables := m.Tables()
	constraints, err := m.constraints()
	if err != nil {
		return nil, err
	}

	dependsOn := make(map[string]map[string]bool, len(tables))
	for _, sch := range tables {
		dependsOn[sch.Table] = map[string]bool{}
		for _, c := range constraints[sch.Table] {
			if c.ReferenceSchema.Table != sch.Table {
				dependsOn[sch.Table][c.ReferenceSchema.Table] = true
			}
		}
	}

	var (
		sorted  = make([]*schema.Schema, 0, len(tables))
		emitted = map[string]bool{}
	)
	for len(sorted) < len(tables) {
		progress := false
		for _, sch := range tables {
			if emitted[sch.Table] {
				continue
			}
			ready := true
			for dep := range dependsOn[sch.Table] {
				if _, known := dependsOn[dep]; known && !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				emitted[sch.Table] = true
				sorted = append(sorted, sch)
				progress = true
			}
		}
		if !progress {
			// cycle: emit what is left in registration order
			for _, sch := range tables {
				if !emitted[sch.Table] {
					emitted[sch.Table] = true
					sorted = append(sorted, sch)
				}
			}
		}
	}

	return sorted, nil
}
