package sqli

import (
	"strings"

	"github.com/waftester/apiprobe/pkg/regexcache"
)

// errorPatterns match database error text leaking into a response.
var errorPatterns = regexcache.MustSet(
	`(?i)SQL.*error`,
	`(?i)ORA-[0-9]{5}`,
	`(?i)MySQL.*error`,
	`(?i)Syntax error`,
	`(?i)unclosed quotation mark`,
	`(?i)quoted string not properly terminated`,
	`(?i)SQLiteException`,
	`(?i)PostgreSQL.*ERROR`,
	`(?i)Microsoft SQL Server`,
	`(?i)ODBC Driver`,
	`(?i)JDBC Driver`,
	`(?i)PdoException`,
	`(?i)SQL syntax`,
	`(?i)Warning.*mysql`,
	`(?i)Database error`,
	`(?i)SQLSTATE\[`,
	`(?i)Driver.*error`,
	`(?i)SQL command not properly ended`,
	`(?i)invalid SQL statement`,
)

// sensitivePatterns are matched against the lowercased body.
var sensitivePatterns = regexcache.MustSet(
	`password`,
	`credit_card`,
	`ssn`,
	`secret`,
	`token`,
	`private`,
	`auth`,
	`session`,
)

// ContainsSQLError reports whether body carries a database error message.
func ContainsSQLError(body string) bool {
	return errorPatterns.MatchString(body)
}

// ContainsSensitiveData reports whether body mentions credential or
// session material.
func ContainsSensitiveData(body string) bool {
	return sensitivePatterns.MatchString(strings.ToLower(body))
}

// MentionsSQLOrError is the loose detector used by the SOAP and GraphQL
// probes: any "sql" or "error" in the body, case-insensitively.
func MentionsSQLOrError(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "sql") || strings.Contains(lower, "error")
}
