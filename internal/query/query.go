// Package query turns list-endpoint query strings into mongo filter, sort,
// projection and pagination options. Filters follow a closed grammar:
//
//	field=value          equality
//	field[op]=value      op in {gt, gte, lt, lte, in}
//
// Anything outside that grammar is rejected before it reaches the store, so
// callers can never smuggle arbitrary operators into a query document.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Keys with meaning of their own, never treated as field filters.
var reservedKeys = map[string]bool{
	"select": true,
	"sort":   true,
	"page":   true,
	"limit":  true,
}

var operators = map[string]string{
	"gt":  "$gt",
	"gte": "$gte",
	"lt":  "$lt",
	"lte": "$lte",
	"in":  "$in",
}

const (
	DefaultLimit = 25
	defaultSort  = "createdAt"
)

// Options is everything parsed out of a list request's query string.
type Options struct {
	Filter     bson.M
	Projection bson.M // nil when no select was given
	Sort       bson.D
	Page       int64
	Limit      int64
}

// Skip is the number of documents before the requested page.
func (o Options) Skip() int64 {
	return (o.Page - 1) * o.Limit
}

// Page links for the response envelope, mirroring the next/prev hints the
// clients already consume.
type PageLink struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}

type Pagination struct {
	Next *PageLink `json:"next,omitempty"`
	Prev *PageLink `json:"prev,omitempty"`
}

// Paginate computes the next/prev hints for a page over total documents.
func (o Options) Paginate(total int64) Pagination {
	var p Pagination
	if o.Skip()+o.Limit < total {
		p.Next = &PageLink{Page: o.Page + 1, Limit: o.Limit}
	}
	if o.Skip() > 0 {
		p.Prev = &PageLink{Page: o.Page - 1, Limit: o.Limit}
	}
	return p
}

// Parse reads the full grammar out of values. It fails on unknown filter
// operators; malformed page/limit values fall back to their defaults.
func Parse(values url.Values) (Options, error) {
	opts := Options{
		Filter: bson.M{},
		Page:   1,
		Limit:  DefaultLimit,
	}

	for key, vals := range values {
		if reservedKeys[key] || len(vals) == 0 {
			continue
		}
		field, op, err := splitKey(key)
		if err != nil {
			return Options{}, err
		}
		if err := addFilter(opts.Filter, field, op, vals[0]); err != nil {
			return Options{}, err
		}
	}

	if sel := values.Get("select"); sel != "" {
		opts.Projection = bson.M{}
		for _, f := range strings.Split(sel, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.Projection[f] = 1
			}
		}
	}

	opts.Sort = parseSort(values.Get("sort"))

	if page, err := strconv.ParseInt(values.Get("page"), 10, 64); err == nil && page >= 1 {
		opts.Page = page
	}
	if limit, err := strconv.ParseInt(values.Get("limit"), 10, 64); err == nil && limit >= 1 {
		opts.Limit = limit
	}

	return opts, nil
}

// splitKey separates "exp[gte]" into field and operator. A bare field means
// equality (empty operator).
func splitKey(key string) (field, op string, err error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "", nil
	}
	if !strings.HasSuffix(key, "]") {
		return "", "", fmt.Errorf("malformed filter key %q", key)
	}
	field = key[:open]
	op = key[open+1 : len(key)-1]
	if field == "" || op == "" {
		return "", "", fmt.Errorf("malformed filter key %q", key)
	}
	return field, op, nil
}

func addFilter(filter bson.M, field, op, raw string) error {
	if op == "" {
		filter[field] = coerce(raw)
		return nil
	}
	mongoOp, ok := operators[op]
	if !ok {
		return fmt.Errorf("unsupported filter operator %q", op)
	}

	var value interface{}
	if op == "in" {
		parts := strings.Split(raw, ",")
		list := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			list = append(list, coerce(strings.TrimSpace(p)))
		}
		value = list
	} else {
		value = coerce(raw)
	}

	if existing, ok := filter[field].(bson.M); ok {
		existing[mongoOp] = value
	} else {
		filter[field] = bson.M{mongoOp: value}
	}
	return nil
}

// coerce picks the narrowest sensible type for a raw query value so range
// operators compare numbers and dates rather than strings.
func coerce(raw string) interface{} {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return raw
}

// parseSort maps "name,-exp" onto a mongo sort document; a leading '-' means
// descending. Default is newest first.
func parseSort(raw string) bson.D {
	if raw == "" {
		return bson.D{{Key: defaultSort, Value: -1}}
	}
	var sort bson.D
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(f, "-") {
			dir = -1
			f = f[1:]
		}
		if f != "" {
			sort = append(sort, bson.E{Key: f, Value: dir})
		}
	}
	if len(sort) == 0 {
		return bson.D{{Key: defaultSort, Value: -1}}
	}
	return sort
}
