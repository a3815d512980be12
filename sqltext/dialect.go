package sqltext

import "strings"

// Combined keyword, type and function name tables for PostgreSQL and MySQL.
// The highlighter looks words up case-insensitively in priority order
// keyword > type > function; the suggestion engine prefix-matches all three.

var sqlKeywords = []string{
	"SELECT", "FROM", "WHERE", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER",
	"TABLE", "INDEX", "VIEW", "INTO", "VALUES", "SET", "AND", "OR", "NOT", "NULL",
	"IS", "IN", "LIKE", "BETWEEN", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "FULL",
	"ON", "AS", "ORDER", "BY", "GROUP", "HAVING", "LIMIT", "OFFSET", "DISTINCT",
	"UNION", "ALL", "EXISTS", "CASE", "WHEN", "THEN", "ELSE", "END", "ASC", "DESC",
	"PRIMARY", "KEY", "FOREIGN", "REFERENCES", "CONSTRAINT", "DEFAULT", "CHECK",
	"UNIQUE", "CASCADE", "RETURNING", "WITH", "RECURSIVE", "OVER", "PARTITION",
	// MySQL specific
	"SHOW", "DESCRIBE", "EXPLAIN", "USE", "DATABASE", "DATABASES", "TABLES", "COLUMNS",
	"ENGINE", "AUTO_INCREMENT", "IF", "SCHEMA", "SCHEMAS", "TRUNCATE", "RENAME",
	"PROCEDURE", "FUNCTION", "TRIGGER", "EVENT", "GRANT", "REVOKE", "COMMIT", "ROLLBACK",
	"START", "TRANSACTION", "SAVEPOINT", "LOCK", "UNLOCK", "CALL",
}

var sqlTypes = []string{
	"INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT",
	"TEXT", "VARCHAR", "CHAR", "BOOLEAN", "BOOL",
	"DATE", "TIME", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ", "YEAR",
	"NUMERIC", "DECIMAL", "REAL", "FLOAT", "DOUBLE",
	// PostgreSQL specific
	"SERIAL", "BIGSERIAL", "SMALLSERIAL", "UUID", "JSON", "JSONB", "BYTEA",
	"INET", "CIDR", "MACADDR", "INTERVAL", "POINT", "LINE", "POLYGON",
	"ARRAY", "MONEY", "BIT", "VARBIT", "XML", "TSQUERY", "TSVECTOR",
	// MySQL specific
	"BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB",
	"TINYTEXT", "MEDIUMTEXT", "LONGTEXT",
	"ENUM", "BINARY", "VARBINARY", "GEOMETRY",
	"UNSIGNED", "SIGNED", "ZEROFILL",
}

var sqlFunctions = []string{
	// Aggregates
	"COUNT", "SUM", "AVG", "MIN", "MAX", "COALESCE", "NULLIF",
	// Date / time
	"NOW", "CURRENT_DATE", "CURRENT_TIMESTAMP", "CURRENT_TIME",
	"EXTRACT", "DATE_FORMAT", "STR_TO_DATE", "DATEDIFF", "DATE_ADD", "DATE_SUB",
	"MONTH", "DAY", "HOUR", "MINUTE", "SECOND",
	// Strings
	"CONCAT", "CONCAT_WS", "SUBSTRING", "SUBSTR",
	"LOWER", "UPPER", "TRIM", "LTRIM", "RTRIM", "LENGTH", "CHAR_LENGTH",
	"REPLACE", "REVERSE", "REPEAT", "SPACE", "LPAD", "RPAD",
	"INSTR", "LOCATE", "POSITION", "FIELD", "FIND_IN_SET",
	// Conversion
	"CAST", "CONVERT", "TO_CHAR", "TO_DATE", "TO_NUMBER",
	// Window
	"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE",
	"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	// Array / JSON (PostgreSQL)
	"ARRAY_AGG", "STRING_AGG", "JSON_AGG", "JSONB_AGG",
	"JSON_BUILD_OBJECT", "JSONB_BUILD_OBJECT",
	"JSON_EXTRACT_PATH", "JSONB_EXTRACT_PATH",
	// MySQL JSON
	"JSON_EXTRACT", "JSON_UNQUOTE", "JSON_SET", "JSON_INSERT", "JSON_REPLACE",
	"JSON_REMOVE", "JSON_CONTAINS", "JSON_SEARCH", "JSON_KEYS", "JSON_LENGTH",
	// Math
	"ABS", "CEIL", "CEILING", "FLOOR", "ROUND",
	"MOD", "POW", "POWER", "SQRT", "EXP", "LOG", "LOG10", "LOG2",
	"SIN", "COS", "TAN", "ASIN", "ACOS", "ATAN", "ATAN2",
	"RAND", "RANDOM", "SIGN", "PI", "DEGREES", "RADIANS",
	// Control flow
	"IFNULL", "GREATEST", "LEAST",
	// MySQL specific
	"GROUP_CONCAT", "FOUND_ROWS", "LAST_INSERT_ID", "VERSION",
	"USER", "CURRENT_USER", "CONNECTION_ID",
}

var (
	keywordSet  = upperSet(sqlKeywords)
	typeSet     = upperSet(sqlTypes)
	functionSet = upperSet(sqlFunctions)
)

func upperSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToUpper(n)] = struct{}{}
	}
	return set
}
