package dialect

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) ValidateDSN(dsn string) error {
	if _, err := pq.NewConnector(dsn); err != nil {
		return fmt.Errorf("postgres dsn: %w", err)
	}
	return nil
}

func (d *PostgresDialect) GetTablesQuery(schema string) string {
	// use $1 placeholder
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = $1 AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *PostgresDialect) GetColumnsQuery(schema string) string {
	// UDT_NAME (int4, timestamptz, ...) instead of DATA_TYPE so user defined
	// and array types are not collapsed into "USER-DEFINED" / "ARRAY".
	return `SELECT 
    c.table_name, 
    c.column_name, 
    c.udt_name, 
    COALESCE(c.numeric_precision, c.datetime_precision, 0),
    COALESCE(c.character_maximum_length, 0),
    c.ordinal_position
FROM information_schema.columns c
JOIN information_schema.tables t
    ON t.table_schema = c.table_schema AND t.table_name = c.table_name AND t.table_type = 'BASE TABLE'
WHERE c.table_schema = $1 
ORDER BY c.table_name, c.ordinal_position`
}

func (d *PostgresDialect) GetPrimaryKeysQuery(schema string) string {
	return `SELECT kcu.table_name, kcu.column_name FROM information_schema.key_column_usage kcu JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = tc.table_schema WHERE kcu.table_schema = $1 AND tc.constraint_type = 'PRIMARY KEY'`
}

func (d *PostgresDialect) GetForeignKeysQuery(schema string) string {
	return `SELECT kcu.table_name, kcu.constraint_name, kcu.column_name, ccu.table_name AS referenced_table_name, ccu.column_name AS referenced_column_name FROM information_schema.key_column_usage kcu JOIN information_schema.constraint_column_usage ccu ON kcu.constraint_name = ccu.constraint_name JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name WHERE kcu.table_schema = $1 AND tc.constraint_type = 'FOREIGN KEY'`
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return quote(name, `"`, `"`)
}

func (d *PostgresDialect) Paginate(skip, take int64) string {
	return limitOffset(skip, take)
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := DefaultNormalizeType(sqlType)
	// arrays (_int4, _text, ...) travel as their text form
	if strings.HasPrefix(t, "_") {
		return "text"
	}
	return t
}

func (d *PostgresDialect) NormalizeValue(typeName string, v any) any {
	return v
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}
