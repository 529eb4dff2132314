// Query-feature parsing for list endpoints: filtering, sorting, field
// limiting, and pagination, expressed in the URL as
//
//	?price[gte]=100&price[lte]=500&difficulty=easy&sort=-price,name&fields=name,price&page=2&limit=10
//
// Only whitelisted fields and operators reach the query builder; everything
// else is dropped silently, so hostile query keys cannot alter semantics.
package repo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/trailhead-app/go-tours-backend/internal/utils"
)

const (
	// DefaultPageSize bounds list responses when ?limit= is absent.
	DefaultPageSize = 100
	// MaxPageSize is the hard ceiling for ?limit=.
	MaxPageSize = 500
)

// filterableColumns maps the JSON field names clients filter/sort on to the
// underlying column names.
var filterableColumns = map[string]string{
	"name":            "name",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"summary":         "summary",
}

// comparison operators accepted in bracket syntax, e.g. price[gte]=100.
var filterOps = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// Cond is one filter condition: column OP value, or column IN values when
// Op is "IN".
type Cond struct {
	Column string
	Op     string
	Values []string
}

// ListQuery is the parsed, validated form of a list request's query string.
type ListQuery struct {
	Conds  []Cond
	Order  []string // SQL order expressions, already validated
	Select []string // column projection; empty means all
	Page   int
	Limit  int
}

// Offset returns the row offset for the requested page.
func (q ListQuery) Offset() int { return (q.Page - 1) * q.Limit }

// ParseListQuery extracts filter/sort/fields/page/limit from raw query
// values. Unknown fields and operators are ignored; duplicate values for a
// field become an IN condition (the parameter-pollution guard upstream has
// already collapsed duplicates for non-whitelisted fields).
func ParseListQuery(values url.Values) ListQuery {
	q := ListQuery{Page: 1, Limit: DefaultPageSize}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "page":
			if p := utils.AtoiDefault(vals[len(vals)-1], 1); p >= 1 {
				q.Page = p
			}
			continue
		case "limit":
			l := utils.AtoiDefault(vals[len(vals)-1], DefaultPageSize)
			if l < 1 {
				l = 1
			}
			if l > MaxPageSize {
				l = MaxPageSize
			}
			q.Limit = l
			continue
		case "sort":
			q.Order = parseSort(vals[len(vals)-1])
			continue
		case "fields":
			q.Select = parseFields(vals[len(vals)-1])
			continue
		}

		field, op := splitFilterKey(key)
		col, ok := filterableColumns[field]
		if !ok {
			continue
		}
		if op == "" {
			if len(vals) > 1 {
				q.Conds = append(q.Conds, Cond{Column: col, Op: "IN", Values: vals})
			} else {
				q.Conds = append(q.Conds, Cond{Column: col, Op: "=", Values: vals})
			}
			continue
		}
		if sqlOp, ok := filterOps[op]; ok {
			q.Conds = append(q.Conds, Cond{Column: col, Op: sqlOp, Values: vals[len(vals)-1:]})
		}
	}
	return q
}

// splitFilterKey splits "price[gte]" into ("price", "gte"); plain keys return
// an empty operator.
func splitFilterKey(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}

// parseSort turns "-price,name" into validated ORDER BY expressions.
func parseSort(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		part = strings.TrimPrefix(part, "-")
		col, ok := filterableColumns[part]
		if !ok {
			continue
		}
		if desc {
			out = append(out, fmt.Sprintf("%s desc", col))
		} else {
			out = append(out, col)
		}
	}
	return out
}

// parseFields turns "name,price" into a validated column projection. The id
// column is always included so responses stay addressable.
func parseFields(s string) []string {
	cols := []string{"id"}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if col, ok := filterableColumns[part]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 1 {
		return nil
	}
	return cols
}
