package services

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
)

func TestParseListOptions_Defaults(t *testing.T) {
	opts, err := ParseListOptions(url.Values{}, 100)
	if err != nil {
		t.Fatalf("ParseListOptions() failed: %v", err)
	}
	if opts.Limit != 100 {
		t.Errorf("Limit = %d, want 100", opts.Limit)
	}
	if opts.Skip != 0 || opts.Count || opts.Projected() || len(opts.Where) != 0 || len(opts.Sort) != 0 {
		t.Errorf("unexpected non-default options: %+v", opts)
	}
}

func TestParseListOptions_Full(t *testing.T) {
	values := url.Values{
		"where":  {`{"completed": false, "deadline": {"$lt": "2030-01-01", "$gte": "2020-01-01"}}`},
		"sort":   {`{"name": 1, "dateCreated": -1}`},
		"select": {`{"name": 1, "_id": 1, "deadline": 1}`},
		"skip":   {"5"},
		"limit":  {"10"},
		"count":  {"true"},
	}

	opts, err := ParseListOptions(values, 100)
	if err != nil {
		t.Fatalf("ParseListOptions() failed: %v", err)
	}

	wantWhere := []WhereClause{
		{Field: "completed", Op: "==", Value: false},
		{Field: "deadline", Op: ">=", Value: "2020-01-01"},
		{Field: "deadline", Op: "<", Value: "2030-01-01"},
	}
	if !reflect.DeepEqual(opts.Where, wantWhere) {
		t.Errorf("Where = %+v, want %+v", opts.Where, wantWhere)
	}

	wantSort := []SortField{{Field: "name"}, {Field: "dateCreated", Descending: true}}
	if !reflect.DeepEqual(opts.Sort, wantSort) {
		t.Errorf("Sort = %+v, want %+v", opts.Sort, wantSort)
	}

	if want := []string{"name", "deadline"}; !reflect.DeepEqual(opts.Select, want) {
		t.Errorf("Select = %v, want %v", opts.Select, want)
	}
	if opts.Skip != 5 || opts.Limit != 10 || !opts.Count {
		t.Errorf("Skip/Limit/Count = %d/%d/%v, want 5/10/true", opts.Skip, opts.Limit, opts.Count)
	}
}

func TestParseListOptions_FilterAlias(t *testing.T) {
	opts, err := ParseListOptions(url.Values{"filter": {`{"pendingTasks": 0}`}}, 0)
	if err != nil {
		t.Fatalf("ParseListOptions() failed: %v", err)
	}
	if want := []string{"pendingTasks"}; !reflect.DeepEqual(opts.Exclude, want) {
		t.Errorf("Exclude = %v, want %v", opts.Exclude, want)
	}
	if !opts.Projected() {
		t.Error("Projected() = false, want true")
	}
}

func TestParseListOptions_In(t *testing.T) {
	opts, err := ParseListOptions(url.Values{"where": {`{"_id": {"$in": ["a", "b"]}}`}}, 0)
	if err != nil {
		t.Fatalf("ParseListOptions() failed: %v", err)
	}
	want := []WhereClause{{Field: "_id", Op: "in", Value: []interface{}{"a", "b"}}}
	if !reflect.DeepEqual(opts.Where, want) {
		t.Errorf("Where = %+v, want %+v", opts.Where, want)
	}
}

func TestParseListOptions_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"malformed where", url.Values{"where": {`{"name":`}}},
		{"where not object", url.Values{"where": {`[1,2]`}}},
		{"unknown operator", url.Values{"where": {`{"name": {"$regex": "x"}}`}}},
		{"in without array", url.Values{"where": {`{"name": {"$in": "x"}}`}}},
		{"malformed sort", url.Values{"sort": {`name`}}},
		{"bad sort direction", url.Values{"sort": {`{"name": 2}`}}},
		{"mixed projection", url.Values{"select": {`{"name": 1, "email": 0}`}}},
		{"negative skip", url.Values{"skip": {"-1"}}},
		{"non-numeric limit", url.Values{"limit": {"ten"}}},
		{"bad count", url.Values{"count": {"maybe"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseListOptions(tt.values, 0)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestParseSelect(t *testing.T) {
	opts, err := ParseSelect(url.Values{"select": {`{"name": true}`}})
	if err != nil {
		t.Fatalf("ParseSelect() failed: %v", err)
	}
	if want := []string{"name"}; !reflect.DeepEqual(opts.Select, want) {
		t.Errorf("Select = %v, want %v", opts.Select, want)
	}

	opts, err = ParseSelect(url.Values{})
	if err != nil {
		t.Fatalf("ParseSelect() failed: %v", err)
	}
	if opts.Projected() {
		t.Error("Projected() = true without select")
	}
}

func TestDecodeOrderedObject(t *testing.T) {
	fields, err := decodeOrderedObject(`{"z": 1, "a": -1, "m": {"nested": true}}`)
	if err != nil {
		t.Fatalf("decodeOrderedObject() failed: %v", err)
	}
	var keys []string
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	if want := []string{"z", "a", "m"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	if _, err := decodeOrderedObject(`"name"`); err == nil {
		t.Error("decodeOrderedObject() accepted a non-object")
	}
}
