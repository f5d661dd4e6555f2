package dialect

// Dialect abstracts database-specific operations.
type Dialect interface {
	// Driver
	DriverName() string // name registered with database/sql
	ValidateDSN(dsn string) error

	// Metadata Queries (Schema Introspection), bound to the schema name.
	// Columns: table, column, type, precision, max length, ordinal.
	// Primary keys: table, column.
	// Foreign keys: table, constraint, column, referenced table, referenced column.
	GetTablesQuery(schema string) string
	GetColumnsQuery(schema string) string
	GetPrimaryKeysQuery(schema string) string
	GetForeignKeysQuery(schema string) string

	// Query Generation
	QuoteIdent(name string) string
	Paginate(skip, take int64) string // clause appended after ORDER BY

	// Helpers
	NormalizeType(sqlType string) string       // catalog type -> value model type name
	NormalizeValue(typeName string, v any) any // driver quirks before value conversion
	GetSchemaName(input string) string
}
