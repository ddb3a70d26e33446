package sqldantic

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aachurin/sqldantic/logger"
	"github.com/aachurin/sqldantic/schema"
	"github.com/aachurin/sqldantic/sqltype"
)

// ConnPool is the minimal database handle the DDL and scanning helpers
// need; *sql.DB, *sql.Tx and *sql.Conn all satisfy it.
type ConnPool interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DDL renders and executes schema statements for one dialect.
type DDL struct {
	Metadata                     *Metadata
	Dialect                      sqltype.Dialect
	DisableForeignKeyConstraints bool
	Logger                       logger.Interface
}

// DDL binds an emitter to the base's metadata and configuration.
func (b *Base) DDL(dialect sqltype.Dialect) DDL {
	return DDL{
		Metadata:                     b.Metadata,
		Dialect:                      dialect,
		DisableForeignKeyConstraints: b.DisableForeignKeyConstraints,
		Logger:                       b.Logger,
	}
}

// CreateTableSQL renders the CREATE TABLE statement for one registered
// schema, followed by its CREATE INDEX and comment statements.
func (d DDL) CreateTableSQL(sch *schema.Schema) ([]string, error) {
	constraints, err := d.Metadata.constraints()
	if err != nil {
		return nil, err
	}
	return d.createTableSQL(sch, constraints)
}

// CreateAllSQL renders statements for every registered table, ordered so
// referenced tables are created first.
func (d DDL) CreateAllSQL() ([]string, error) {
	sorted, err := d.Metadata.Sorted()
	if err != nil {
		return nil, err
	}
	constraints, err := d.Metadata.constraints()
	if err != nil {
		return nil, err
	}

	var stmts []string
	for _, sch := range sorted {
		tableStmts, err := d.createTableSQL(sch, constraints)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, tableStmts...)
	}
	return stmts, nil
}

// CreateAllSQL renders schema statements for every registered table with
// default settings. Use Base.DDL for configured emission.
func (m *Metadata) CreateAllSQL(dialect sqltype.Dialect) ([]string, error) {
	return DDL{Metadata: m, Dialect: dialect}.CreateAllSQL()
}

// DropAllSQL renders DROP TABLE statements in reverse dependency order.
func (d DDL) DropAllSQL() ([]string, error) {
	sorted, err := d.Metadata.Sorted()
	if err != nil {
		return nil, err
	}
	stmts := make([]string, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+d.Dialect.Quote(sorted[i].Table))
	}
	return stmts, nil
}

// CreateAll executes the rendered statements against pool, tracing each
// one through the logger.
func (d DDL) CreateAll(ctx context.Context, pool ConnPool) error {
	stmts, err := d.CreateAllSQL()
	if err != nil {
		return err
	}
	return d.execAll(ctx, pool, stmts)
}

// DropAll drops every registered table.
func (d DDL) DropAll(ctx context.Context, pool ConnPool) error {
	stmts, err := d.DropAllSQL()
	if err != nil {
		return err
	}
	return d.execAll(ctx, pool, stmts)
}

func (d DDL) execAll(ctx context.Context, pool ConnPool, stmts []string) error {
	log := d.Logger
	if log == nil {
		log = logger.Default
	}
	for _, stmt := range stmts {
		begin := time.Now()
		_, err := pool.ExecContext(ctx, stmt)
		log.Trace(ctx, begin, func() (string, int64) { return d.Dialect.Explain(stmt), -1 }, err)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d DDL) createTableSQL(sch *schema.Schema, constraints map[string][]*schema.Constraint) ([]string, error) {
	var (
		defs    []string
		extra   []string
		quote   = d.Dialect.Quote
		checks  = sch.ParseCheckConstraints()
		uniques = sch.ParseUniqueConstraints()
	)

	for _, dbName := range sch.DBNames {
		field := sch.FieldsByDBName[dbName]
		def, comment := d.columnDef(sch, field)
		defs = append(defs, def)
		if comment != "" {
			extra = append(extra, comment)
		}
	}

	if len(sch.PrimaryFieldDBNames) > 0 && !d.inlinePrimaryKey(sch) {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(quoteAll(quote, sch.PrimaryFieldDBNames), ",")+")")
	}

	// enum checks
	for _, dbName := range sch.DBNames {
		field := sch.FieldsByDBName[dbName]
		if field.Kind != schema.KindEnum || len(field.EnumValues) == 0 {
			continue
		}
		name := sch.Namer().CheckerName(sch.Table, field.DBName)
		if _, taken := checks[name]; taken {
			name = sch.Namer().CheckerName(sch.Table, field.DBName+"_enum")
		}
		values := make([]string, len(field.EnumValues))
		for i, v := range field.EnumValues {
			if field.DataType == schema.String {
				values[i] = quoteString(v)
			} else {
				values[i] = v
			}
		}
		defs = append(defs, "CONSTRAINT "+quote(name)+" CHECK ("+quote(field.DBName)+" IN ("+strings.Join(values, ",")+"))")
	}

	for _, name := range sortedKeys(uniques) {
		defs = append(defs, "CONSTRAINT "+quote(name)+" UNIQUE ("+quote(uniques[name].Field.DBName)+")")
	}

	for _, name := range sortedKeys(checks) {
		defs = append(defs, "CONSTRAINT "+quote(name)+" CHECK ("+checks[name].Constraint+")")
	}

	if !d.DisableForeignKeyConstraints {
		for _, c := range constraints[sch.Table] {
			def := "CONSTRAINT " + quote(c.Name) +
				" FOREIGN KEY (" + strings.Join(quoteAll(quote, dbNames(c.ForeignKeys)), ",") + ")" +
				" REFERENCES " + quote(c.ReferenceSchema.Table) +
				" (" + strings.Join(quoteAll(quote, dbNames(c.References)), ",") + ")"
			if c.OnDelete != "" {
				def += " ON DELETE " + c.OnDelete
			}
			if c.OnUpdate != "" {
				def += " ON UPDATE " + c.OnUpdate
			}
			defs = append(defs, def)
		}
	}

	stmts := []string{"CREATE TABLE " + quote(sch.Table) + " (" + strings.Join(defs, ", ") + ")"}

	for _, idx := range sch.ParseIndexes() {
		stmt := "CREATE "
		if idx.Class != "" {
			stmt += idx.Class + " "
		}
		stmt += "INDEX " + quote(idx.Name) + " ON " + quote(sch.Table)
		if idx.Type != "" && d.Dialect == sqltype.Postgres {
			stmt += " USING " + idx.Type
		}
		stmt += " ("

		cols := make([]string, 0, len(idx.Fields))
		var where string
		for _, opt := range idx.Fields {
			col := quote(opt.DBName)
			if opt.Expression != "" {
				col = opt.Expression
			} else if opt.Length > 0 && d.Dialect == sqltype.MySQL {
				col += "(" + strconv.Itoa(opt.Length) + ")"
			}
			if opt.Collate != "" {
				col += " COLLATE " + opt.Collate
			}
			if opt.Sort != "" {
				col += " " + opt.Sort
			}
			cols = append(cols, col)
			if opt.Where != "" {
				where = opt.Where
			}
		}
		stmt += strings.Join(cols, ",") + ")"
		if where != "" && d.Dialect != sqltype.MySQL {
			stmt += " WHERE " + where
		}
		stmts = append(stmts, stmt)
	}

	return append(stmts, extra...), nil
}

// inlinePrimaryKey reports whether the primary key is emitted as part of
// the column definition, which sqlite requires for AUTOINCREMENT.
func (d DDL) inlinePrimaryKey(sch *schema.Schema) bool {
	return d.Dialect == sqltype.SQLite &&
		len(sch.PrimaryFields) == 1 &&
		sch.PrimaryFields[0].AutoIncrement
}

// columnDef renders one column definition and, for postgres, an optional
// COMMENT ON statement.
func (d DDL) columnDef(sch *schema.Schema, field *schema.Field) (string, string) {
	quote := d.Dialect.Quote
	sqlType := field.StorageType.SQL(d.Dialect)

	def := quote(field.DBName) + " "
	switch {
	case field.AutoIncrement && d.Dialect == sqltype.SQLite && d.inlinePrimaryKey(sch):
		return def + "integer PRIMARY KEY AUTOINCREMENT", ""
	case field.AutoIncrement && d.Dialect == sqltype.Postgres:
		switch {
		case field.Size <= 16:
			def += "smallserial"
		case field.Size <= 32:
			def += "serial"
		default:
			def += "bigserial"
		}
	case field.AutoIncrement && d.Dialect == sqltype.MySQL:
		def += sqlType + " AUTO_INCREMENT"
	default:
		def += sqlType
	}

	if !field.PrimaryKey && (!field.Nullable || field.NotNull) {
		def += " NOT NULL"
	}

	if field.HasDefaultValue && !field.AutoIncrement && field.DefaultValue != "" {
		def += " DEFAULT " + renderDefault(field)
	}

	var comment string
	if field.Comment != "" {
		switch d.Dialect {
		case sqltype.MySQL:
			def += " COMMENT " + quoteString(field.Comment)
		case sqltype.Postgres:
			comment = "COMMENT ON COLUMN " + quote(sch.Table) + "." + quote(field.DBName) +
				" IS " + quoteString(field.Comment)
		}
	}

	return def, comment
}

// renderDefault turns a parsed default into a literal; unparsed defaults
// pass through as raw expressions, e.g. CURRENT_TIMESTAMP.
func renderDefault(field *schema.Field) string {
	switch v := field.DefaultValueInterface.(type) {
	case nil:
		return field.DefaultValue
	case string:
		return quoteString(v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Duration:
		return strconv.FormatInt(int64(v), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func quoteAll(quote func(string) string, names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = quote(name)
	}
	return out
}

func dbNames(fields []*schema.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.DBName
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
