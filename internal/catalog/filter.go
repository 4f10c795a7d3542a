package catalog

import (
	"strconv"
	"strings"
	"unicode"
)

// predicateBuilder accumulates an SQL predicate and a parallel argument list.
// Every user value goes through bind, which appends the value and returns its
// positional placeholder, so the emitted text never contains caller input and
// the placeholder count always equals len(args).
type predicateBuilder struct {
	where strings.Builder
	args  []any
}

func newPredicateBuilder() *predicateBuilder {
	b := &predicateBuilder{}
	b.where.WriteString("WHERE 1=1")
	return b
}

func (b *predicateBuilder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

// and appends one facet group to the predicate.
func (b *predicateBuilder) and(group string) {
	b.where.WriteString(" AND (")
	b.where.WriteString(group)
	b.where.WriteString(")")
}

// orEquals builds an OR group of equality clauses, one placeholder per value.
func (b *predicateBuilder) orEquals(column string, values []string) string {
	clauses := make([]string, 0, len(values))
	for _, v := range values {
		clauses = append(clauses, column+" = "+b.bind(v))
	}
	return strings.Join(clauses, " OR ")
}

func contains(value string) string {
	return "%" + value + "%"
}

// tokenize splits free text on runs of whitespace, including the full-width
// ideographic space, and discards empty tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, unicode.IsSpace)
}

// cleanValues drops empty entries left over from CSV splitting.
func cleanValues(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// compileSearch translates the facet set into a parameterized predicate over
// the search join (p = parts, s = part_suppliers). Facets are visited in a
// fixed order so the same filter always compiles to the same text and
// argument sequence.
func compileSearch(f SearchFilter) (string, []any) {
	b := newPredicateBuilder()

	if f.Name != "" {
		b.and("p.name ILIKE " + b.bind(contains(f.Name)))
	}
	if f.SKU != "" {
		b.and("p.sku ILIKE " + b.bind(contains(f.SKU)))
	}
	if f.SupplierCode != "" {
		b.and("s.supplier_code = " + b.bind(f.SupplierCode))
	}
	if packages := cleanValues(f.PackageCodes); len(packages) > 0 {
		b.and(b.orEquals("p.package_code", packages))
	}
	if categories := cleanValues(f.Categories); len(categories) > 0 {
		b.and(b.orEquals("p.category", categories))
	}
	for _, token := range tokenize(f.Description) {
		b.and("p.description ILIKE " + b.bind(contains(token)))
	}
	if f.Keyword != "" {
		b.and("p.sku ILIKE " + b.bind(contains(f.Keyword)) + " OR p.name ILIKE " + b.bind(contains(f.Keyword)))
	}

	return b.where.String(), b.args
}
