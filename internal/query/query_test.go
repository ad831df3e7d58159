package query

import (
	"net/url"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func mustParse(t *testing.T, raw string) Options {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	opts, err := Parse(values)
	if err != nil {
		t.Fatalf("parse options: %v", err)
	}
	return opts
}

func TestParseEquality(t *testing.T) {
	opts := mustParse(t, "area=orthodontics")
	if got := opts.Filter["area"]; got != "orthodontics" {
		t.Fatalf("area filter = %v, want orthodontics", got)
	}
}

func TestParseComparisonOperators(t *testing.T) {
	opts := mustParse(t, "exp[gte]=5&exp[lt]=10")
	f, ok := opts.Filter["exp"].(bson.M)
	if !ok {
		t.Fatalf("exp filter = %T, want bson.M", opts.Filter["exp"])
	}
	if f["$gte"] != int64(5) {
		t.Errorf("$gte = %v, want 5", f["$gte"])
	}
	if f["$lt"] != int64(10) {
		t.Errorf("$lt = %v, want 10", f["$lt"])
	}
}

func TestParseInOperator(t *testing.T) {
	opts := mustParse(t, "area[in]=surgery,orthodontics")
	f, ok := opts.Filter["area"].(bson.M)
	if !ok {
		t.Fatalf("area filter = %T, want bson.M", opts.Filter["area"])
	}
	list, ok := f["$in"].([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("$in = %v, want two values", f["$in"])
	}
	if list[0] != "surgery" || list[1] != "orthodontics" {
		t.Fatalf("$in = %v", list)
	}
}

func TestParseRejectsUnknownOperator(t *testing.T) {
	values, _ := url.ParseQuery("exp[regex]=.*")
	if _, err := Parse(values); err == nil {
		t.Fatal("expected error for unknown operator")
	}
	values, _ = url.ParseQuery("exp[gte=5")
	if _, err := Parse(values); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestParseDateCoercion(t *testing.T) {
	opts := mustParse(t, "apptDate[gte]=2026-09-01")
	f := opts.Filter["apptDate"].(bson.M)
	got, ok := f["$gte"].(time.Time)
	if !ok {
		t.Fatalf("$gte = %T, want time.Time", f["$gte"])
	}
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("$gte = %v, want %v", got, want)
	}
}

func TestReservedKeysAreNotFilters(t *testing.T) {
	opts := mustParse(t, "select=name,exp&sort=-exp&page=2&limit=10")
	if len(opts.Filter) != 0 {
		t.Fatalf("filter = %v, want empty", opts.Filter)
	}
	if opts.Projection["name"] != 1 || opts.Projection["exp"] != 1 {
		t.Fatalf("projection = %v", opts.Projection)
	}
	if len(opts.Sort) != 1 || opts.Sort[0].Key != "exp" || opts.Sort[0].Value != -1 {
		t.Fatalf("sort = %v", opts.Sort)
	}
	if opts.Page != 2 || opts.Limit != 10 {
		t.Fatalf("page/limit = %d/%d", opts.Page, opts.Limit)
	}
}

func TestDefaults(t *testing.T) {
	opts := mustParse(t, "")
	if opts.Page != 1 || opts.Limit != DefaultLimit {
		t.Fatalf("page/limit = %d/%d, want 1/%d", opts.Page, opts.Limit, DefaultLimit)
	}
	if len(opts.Sort) != 1 || opts.Sort[0].Key != "createdAt" || opts.Sort[0].Value != -1 {
		t.Fatalf("default sort = %v", opts.Sort)
	}
	if opts.Projection != nil {
		t.Fatalf("projection = %v, want nil", opts.Projection)
	}
}

func TestPaginationHints(t *testing.T) {
	opts := Options{Page: 2, Limit: 10}
	p := opts.Paginate(25)
	if p.Prev == nil || p.Prev.Page != 1 {
		t.Fatalf("prev = %+v, want page 1", p.Prev)
	}
	if p.Next == nil || p.Next.Page != 3 {
		t.Fatalf("next = %+v, want page 3", p.Next)
	}

	// Last page: no next.
	opts.Page = 3
	p = opts.Paginate(25)
	if p.Next != nil {
		t.Fatalf("next = %+v, want nil on last page", p.Next)
	}
	if p.Prev == nil || p.Prev.Page != 2 {
		t.Fatalf("prev = %+v, want page 2", p.Prev)
	}

	// First page of a small set: no hints at all.
	opts.Page = 1
	p = opts.Paginate(5)
	if p.Next != nil || p.Prev != nil {
		t.Fatalf("pagination = %+v, want empty", p)
	}
}
