package dialect

import (
	"fmt"
	"strings"
)

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(strings.TrimSpace(sqlType))
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

// quote wraps name in the given delimiters, doubling any closing delimiter.
func quote(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

// offsetFetch is the ANSI pagination clause shared by SQL Server and Oracle.
func offsetFetch(skip, take int64) string {
	return fmt.Sprintf(" offset %d rows fetch next %d rows only", skip, take)
}

// limitOffset is the pagination clause of PostgreSQL and MySQL.
func limitOffset(skip, take int64) string {
	return fmt.Sprintf(" limit %d offset %d", take, skip)
}
