package querysql

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/semsql/internal/semantic"
)

// resolver turns entity names into column references for one workspace.
type resolver struct {
	layer   *semantic.Layer
	aliases map[string]string
}

// resolve returns "alias.column" for a simple entity, or the entity's
// expression with every "table." reference rewritten to "alias." for a
// derived one.
func (r resolver) resolve(name string) (string, error) {
	e, ok := r.layer.Entity(name)
	if !ok {
		return "", unknownEntity(name)
	}

	if !e.IsDerived() {
		alias, err := r.alias(e.Table)
		if err != nil {
			return "", err
		}
		return alias + "." + e.Column, nil
	}

	for _, t := range e.TablesNeeded {
		if _, err := r.alias(t); err != nil {
			return "", err
		}
	}
	return substituteTables(e.Expression, e.TablesNeeded, r.aliases), nil
}

// resolveFieldOrAlias resolves name as an entity when the layer defines it,
// and otherwise emits it as a quoted output alias. The alias is not checked
// against the projections.
func (r resolver) resolveFieldOrAlias(name string) (string, error) {
	if !r.layer.Has(name) {
		return QuoteIdent(name), nil
	}
	return r.resolve(name)
}

func (r resolver) alias(table string) (string, error) {
	alias, ok := r.aliases[table]
	if !ok {
		return "", &CompileError{
			Code:    ErrCodeMalformedInput,
			Message: "table has no alias in this compilation",
			Name:    table,
		}
	}
	return alias, nil
}

// substituteTables rewrites whole-token "table." references in one pass.
// Longer names are tried first so a table never matches inside a longer one.
// A name counts as whole when the rune before it is not a letter, digit,
// mark or underscore in any script.
func substituteTables(expr string, tables []string, aliases map[string]string) string {
	if len(tables) == 0 {
		return expr
	}

	names := slices.Clone(tables)
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	names = slices.Compact(names)

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	re := regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)\.`)

	var b strings.Builder
	pos := 0
	for pos < len(expr) {
		loc := re.FindStringIndex(expr[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if prev, _ := utf8.DecodeLastRuneInString(expr[:start]); start > 0 && isWordRune(prev) {
			_, size := utf8.DecodeRuneInString(expr[start:])
			b.WriteString(expr[pos : start+size])
			pos = start + size
			continue
		}
		b.WriteString(expr[pos:start])
		b.WriteString(aliases[expr[start:end-1]])
		b.WriteByte('.')
		pos = end
	}
	b.WriteString(expr[pos:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
