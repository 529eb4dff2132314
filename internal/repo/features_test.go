package repo

import (
	"net/url"
	"testing"
)

func TestParseListQuery_RangeFilter(t *testing.T) {
	v, _ := url.ParseQuery("price[gte]=100&price[lte]=500&difficulty=easy")
	q := ParseListQuery(v)

	if len(q.Conds) != 3 {
		t.Fatalf("conds = %#v", q.Conds)
	}
	found := map[string]bool{}
	for _, c := range q.Conds {
		switch {
		case c.Column == "price" && c.Op == ">=" && c.Values[0] == "100":
			found["gte"] = true
		case c.Column == "price" && c.Op == "<=" && c.Values[0] == "500":
			found["lte"] = true
		case c.Column == "difficulty" && c.Op == "=" && c.Values[0] == "easy":
			found["eq"] = true
		}
	}
	if len(found) != 3 {
		t.Fatalf("missing conditions: %#v", q.Conds)
	}
}

func TestParseListQuery_MultiValueBecomesIN(t *testing.T) {
	v, _ := url.ParseQuery("difficulty=easy&difficulty=hard")
	q := ParseListQuery(v)
	if len(q.Conds) != 1 || q.Conds[0].Op != "IN" || len(q.Conds[0].Values) != 2 {
		t.Fatalf("conds = %#v", q.Conds)
	}
}

func TestParseListQuery_UnknownFieldIgnored(t *testing.T) {
	v, _ := url.ParseQuery("passwordHash[gte]=x&role=admin&name[drop]=1")
	q := ParseListQuery(v)
	if len(q.Conds) != 0 {
		t.Fatalf("unknown fields must not reach the query builder: %#v", q.Conds)
	}
}

func TestParseListQuery_SortAndFields(t *testing.T) {
	v, _ := url.ParseQuery("sort=-price,name,bogus&fields=name,price,secretTour")
	q := ParseListQuery(v)

	if len(q.Order) != 2 || q.Order[0] != "price desc" || q.Order[1] != "name" {
		t.Fatalf("order = %#v", q.Order)
	}
	// id is always projected; bogus/secretTour dropped.
	if len(q.Select) != 3 || q.Select[0] != "id" || q.Select[1] != "name" || q.Select[2] != "price" {
		t.Fatalf("select = %#v", q.Select)
	}
}

func TestParseListQuery_PaginationClamping(t *testing.T) {
	v, _ := url.ParseQuery("page=0&limit=100000")
	q := ParseListQuery(v)
	if q.Page != 1 {
		t.Fatalf("page = %d", q.Page)
	}
	if q.Limit != MaxPageSize {
		t.Fatalf("limit = %d", q.Limit)
	}
	if q.Offset() != 0 {
		t.Fatalf("offset = %d", q.Offset())
	}

	v, _ = url.ParseQuery("page=3&limit=10")
	q = ParseListQuery(v)
	if q.Offset() != 20 {
		t.Fatalf("offset = %d", q.Offset())
	}
}

func TestSplitFilterKey(t *testing.T) {
	f, op := splitFilterKey("price[gte]")
	if f != "price" || op != "gte" {
		t.Fatalf("got %q %q", f, op)
	}
	f, op = splitFilterKey("difficulty")
	if f != "difficulty" || op != "" {
		t.Fatalf("got %q %q", f, op)
	}
	// Unterminated bracket treated as a plain (unknown) key.
	f, op = splitFilterKey("price[gte")
	if f != "price[gte" || op != "" {
		t.Fatalf("got %q %q", f, op)
	}
}
