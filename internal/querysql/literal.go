package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/semsql/internal/queryir"
)

// FormatValue renders a literal as SQL text:
//
//	String -> 'text' with embedded quotes doubled
//	Number -> the decimal text, unquoted
//	List   -> (a, b, ...)
//	other  -> NULL
//
// Values are embedded, not parameterized.
func FormatValue(v queryir.Value) (string, error) {
	switch val := v.(type) {
	case queryir.String:
		return QuoteLiteral(string(val)), nil
	case queryir.Number:
		if !val.Valid() {
			return "", malformed("invalid number literal %q", string(val))
		}
		return string(val), nil
	case queryir.List:
		parts := make([]string, len(val))
		for i, elem := range val {
			s, err := FormatValue(elem)
			if err != nil {
				return "", fmt.Errorf("list index %d: %w", i, err)
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "NULL", nil
	}
}

// QuoteLiteral wraps s in single quotes, doubling any embedded single quote.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdent wraps s in double quotes, doubling any embedded double quote.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
