package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
)

const idField = "_id"

var errUnsupportedQuery = &ValidationError{Message: "query is not supported by the store"}

// Firestore caps the size of disjunctive filters.
const (
	maxInValues    = 30
	maxNotInValues = 10
)

var whereOperators = map[string]string{
	"$eq":  "==",
	"$ne":  "!=",
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
	"$in":  "in",
	"$nin": "not-in",
}

type WhereClause struct {
	Field string
	Op    string
	Value interface{}
}

type SortField struct {
	Field      string
	Descending bool
}

// ListOptions is the decoded form of the where/sort/select/skip/limit/count
// query parameters accepted by the list endpoints.
type ListOptions struct {
	Where   []WhereClause
	Sort    []SortField
	Select  []string
	Exclude []string
	Skip    int
	Limit   int // 0 = unlimited
	Count   bool
}

// ParseListOptions decodes list query parameters. defaultLimit applies when
// no limit is given; 0 leaves the result unbounded.
func ParseListOptions(values url.Values, defaultLimit int) (*ListOptions, error) {
	opts := &ListOptions{Limit: defaultLimit}

	if raw := values.Get("where"); raw != "" {
		where, err := parseWhere(raw)
		if err != nil {
			return nil, err
		}
		opts.Where = where
	}

	if raw := values.Get("sort"); raw != "" {
		fields, err := decodeOrderedObject(raw)
		if err != nil {
			return nil, invalidf("sort must be a JSON object")
		}
		for _, f := range fields {
			dir, ok := f.value.(float64)
			if !ok || (dir != 1 && dir != -1) {
				return nil, invalidf("sort direction for %q must be 1 or -1", f.key)
			}
			opts.Sort = append(opts.Sort, SortField{Field: f.key, Descending: dir < 0})
		}
	}

	raw := values.Get("select")
	if raw == "" {
		raw = values.Get("filter")
	}
	if raw != "" {
		include, exclude, err := parseProjection(raw)
		if err != nil {
			return nil, err
		}
		opts.Select, opts.Exclude = include, exclude
	}

	if raw := values.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, invalidf("skip must be a non-negative integer")
		}
		opts.Skip = n
	}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, invalidf("limit must be a non-negative integer")
		}
		opts.Limit = n
	}

	if raw := values.Get("count"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalidf("count must be true or false")
		}
		opts.Count = b
	}

	return opts, nil
}

// ParseSelect decodes the select parameter of the single-document endpoints.
func ParseSelect(values url.Values) (*ListOptions, error) {
	opts := &ListOptions{}
	raw := values.Get("select")
	if raw == "" {
		raw = values.Get("filter")
	}
	if raw == "" {
		return opts, nil
	}
	include, exclude, err := parseProjection(raw)
	if err != nil {
		return nil, err
	}
	opts.Select, opts.Exclude = include, exclude
	return opts, nil
}

// Projected reports whether documents should be returned as field maps.
func (o *ListOptions) Projected() bool {
	return len(o.Select) > 0 || len(o.Exclude) > 0
}

func parseWhere(raw string) ([]WhereClause, error) {
	var where map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &where); err != nil {
		return nil, invalidf("where must be a JSON object")
	}

	fields := make([]string, 0, len(where))
	for f := range where {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var clauses []WhereClause
	for _, field := range fields {
		cond, isOps := where[field].(map[string]interface{})
		if !isOps {
			clauses = append(clauses, WhereClause{Field: field, Op: "==", Value: where[field]})
			continue
		}

		ops := make([]string, 0, len(cond))
		for op := range cond {
			ops = append(ops, op)
		}
		sort.Strings(ops)

		for _, op := range ops {
			fsOp, ok := whereOperators[op]
			if !ok {
				return nil, invalidf("unsupported operator %s on %q", op, field)
			}
			value := cond[op]
			if fsOp == "in" || fsOp == "not-in" {
				values, ok := value.([]interface{})
				if !ok {
					return nil, invalidf("%s on %q needs an array", op, field)
				}
				if (fsOp == "in" && len(values) > maxInValues) || (fsOp == "not-in" && len(values) > maxNotInValues) {
					return nil, invalidf("too many values for %s on %q", op, field)
				}
			}
			clauses = append(clauses, WhereClause{Field: field, Op: fsOp, Value: value})
		}
	}
	return clauses, nil
}

func parseProjection(raw string) (include []string, exclude []string, err error) {
	fields, decErr := decodeOrderedObject(raw)
	if decErr != nil {
		return nil, nil, invalidf("select must be a JSON object")
	}
	for _, f := range fields {
		if f.key == idField {
			continue
		}
		if truthy(f.value) {
			include = append(include, f.key)
		} else {
			exclude = append(exclude, f.key)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return nil, nil, invalidf("select cannot mix inclusion and exclusion")
	}
	return include, exclude, nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0" && t != "false"
	}
	return v != nil
}

type objectField struct {
	key   string
	value interface{}
}

// decodeOrderedObject decodes a flat JSON object keeping its key order.
func decodeOrderedObject(raw string) ([]objectField, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object")
	}

	var fields []objectField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key")
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, objectField{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func fieldPath(field string) string {
	if field == idField {
		return firestore.DocumentID
	}
	return field
}

// filtered applies the where clauses to coll.
func (o *ListOptions) filtered(coll *firestore.CollectionRef) (firestore.Query, error) {
	q := coll.Query
	for _, w := range o.Where {
		value := w.Value
		if w.Field == idField {
			ref, err := docRefs(coll, value)
			if err != nil {
				return q, err
			}
			value = ref
		}
		q = q.Where(fieldPath(w.Field), w.Op, value)
	}
	return q, nil
}

func (o *ListOptions) query(coll *firestore.CollectionRef) (firestore.Query, error) {
	q, err := o.filtered(coll)
	if err != nil {
		return q, err
	}
	for _, s := range o.Sort {
		dir := firestore.Asc
		if s.Descending {
			dir = firestore.Desc
		}
		q = q.OrderBy(fieldPath(s.Field), dir)
	}
	if len(o.Select) > 0 {
		q = q.Select(o.Select...)
	}
	if o.Skip > 0 {
		q = q.Offset(o.Skip)
	}
	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}
	return q, nil
}

// docRefs converts _id filter values into document references.
func docRefs(coll *firestore.CollectionRef, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		id := CanonicalID(v)
		if id == "" {
			return nil, invalidf("invalid _id %q", v)
		}
		return coll.Doc(id), nil
	case []interface{}:
		refs := make([]*firestore.DocumentRef, 0, len(v))
		for _, item := range v {
			s, _ := item.(string)
			id := CanonicalID(s)
			if id == "" {
				return nil, invalidf("invalid _id %v", item)
			}
			refs = append(refs, coll.Doc(id))
		}
		return refs, nil
	}
	return nil, invalidf("invalid _id filter")
}

// project renders a snapshot as a field map honouring the projection.
func (o *ListOptions) project(snap *firestore.DocumentSnapshot) map[string]interface{} {
	data := snap.Data()
	out := map[string]interface{}{idField: snap.Ref.ID}
	if len(o.Select) > 0 {
		for _, f := range o.Select {
			if v, ok := data[f]; ok {
				out[f] = v
			}
		}
		return out
	}
	for k, v := range data {
		out[k] = v
	}
	for _, f := range o.Exclude {
		delete(out, f)
	}
	return out
}

type decodeFunc func(snap *firestore.DocumentSnapshot) (interface{}, error)

// list runs opts against collection. It returns an int64 when opts.Count is
// set, otherwise the matching documents.
func list(ctx context.Context, fb *firestore.Client, collection string, opts *ListOptions, decode decodeFunc) (interface{}, error) {
	coll := fb.Collection(collection)

	if opts.Count {
		q, err := opts.filtered(coll)
		if err != nil {
			return nil, err
		}
		return count(ctx, q)
	}

	q, err := opts.query(coll)
	if err != nil {
		return nil, err
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	items := []interface{}{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if isBadQuery(err) {
				return nil, errUnsupportedQuery
			}
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		if opts.Projected() {
			items = append(items, opts.project(snap))
			continue
		}
		item, err := decode(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		if isBadQuery(err) {
			return 0, errUnsupportedQuery
		}
		return 0, fmt.Errorf("count: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count: unexpected aggregation result %T", res["all"])
	}
	return v.GetIntegerValue(), nil
}
