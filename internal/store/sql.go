package store

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Catalog table columns
const (
	colCatalogID        = "FileMetaData_ID"
	colCatalogFileName  = "FileName"
	colCatalogTimestamp = "DW_Insert_Timestamp"
)

// dialect covers the SQL differences between the supported warehouses
type dialect struct {
	quote       func(ident string) string
	placeholder func(n int) string
}

var mysqlDialect = dialect{
	quote: func(ident string) string {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	},
	placeholder: func(int) string { return "?" },
}

var postgresDialect = dialect{
	quote: func(ident string) string {
		return pgx.Identifier{ident}.Sanitize()
	},
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// qualified returns schema.table, quoted; an empty schema is omitted
func (d dialect) qualified(schema, table string) string {
	if schema == "" {
		return d.quote(table)
	}
	return d.quote(schema) + "." + d.quote(table)
}

// catalogQuery selects the file name and timestamp of the entry named name,
// or of the entry with the highest id when name is empty
func (d dialect) catalogQuery(schema, table, name string) (string, []any) {
	from := d.qualified(schema, table)
	cols := d.quote(colCatalogFileName) + ", " + d.quote(colCatalogTimestamp)

	if name == "" {
		id := d.quote(colCatalogID)
		return fmt.Sprintf("SELECT %s FROM %s WHERE %s = (SELECT MAX(%s) FROM %s) LIMIT 1",
			cols, from, id, id, from), nil
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s LIMIT 1",
		cols, from, d.quote(colCatalogFileName), d.placeholder(1)), []any{name}
}
