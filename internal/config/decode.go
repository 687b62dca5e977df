package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/banshee-data/sans.calculator/internal/calcerr"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
)

// Decode parses a JSON parameter tree. Keys the schema does not recognise are
// returned (as dotted paths) and logged, but never fail the request. Type
// mismatches fail with an InvalidConfig error carrying the field path.
func Decode(raw []byte) (*Params, []string, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, nil, jsonError(err)
	}
	if _, ok := generic.(map[string]interface{}); !ok {
		return nil, nil, calcerr.InvalidConfig("", "parameter tree must be a JSON object")
	}

	p := &Params{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, nil, jsonError(err)
	}

	unknown := UnknownKeys(generic, reflect.TypeOf(p), "")
	for _, key := range unknown {
		monitoring.Logf("config: ignoring unknown parameter %q", key)
	}
	return p, unknown, nil
}

func jsonError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &calcerr.Error{
			Kind: calcerr.KindInvalidConfig,
			Path: typeErr.Field,
			Msg:  fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
			Err:  err,
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &calcerr.Error{
			Kind: calcerr.KindInvalidConfig,
			Msg:  fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset),
			Err:  err,
		}
	}
	return &calcerr.Error{Kind: calcerr.KindInvalidConfig, Msg: "cannot decode parameters", Err: err}
}

// UnknownKeys walks a generic JSON value alongside the Go type it decodes
// into and returns the dotted paths of object keys that have no matching
// field. Map-typed fields accept any key.
func UnknownKeys(v interface{}, t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var out []string
	switch t.Kind() {
	case reflect.Struct:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		fields := jsonFields(t)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			path := joinPath(prefix, k)
			ft, ok := fields[strings.ToLower(k)]
			if !ok {
				out = append(out, path)
				continue
			}
			out = append(out, UnknownKeys(obj[k], ft, path)...)
		}
	case reflect.Slice, reflect.Array:
		arr, ok := v.([]interface{})
		if !ok {
			return nil
		}
		for i, elem := range arr {
			out = append(out, UnknownKeys(elem, t.Elem(), fmt.Sprintf("%s[%d]", prefix, i))...)
		}
	}
	return out
}

// jsonFields maps lower-cased JSON names onto field types, matching
// encoding/json's case-insensitive key folding.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields[strings.ToLower(name)] = f.Type
	}
	return fields
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
