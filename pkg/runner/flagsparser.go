// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.
//
// https://github.com/peterbourgon/ff/blob/7a9748fa77b6d2664e5553540a9cb69d31978815/ffyaml/ffyaml.go
package runner

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/peterbourgon/ff/v3"
	"gopkg.in/yaml.v2"
)

// Parser is a parser for YAML file format. Flags and their values are read
// from the key/value pairs defined in the config file.
//
// Modified version of ffyaml.Parser that also accepts nested mappings. Keys
// of nested mappings are joined with `.`, so
//
//   db:
//     host: localhost
//     port: 5432
//
// is the same as
//
//   db.host: localhost
//   db.port: 5432
//
// Setting the same flag in both forms is an error.
func Parser(r io.Reader, set func(name, value string) error) error {
	var m map[interface{}]interface{}
	d := yaml.NewDecoder(r)
	if err := d.Decode(&m); err != nil && err != io.EOF {
		return ParseError{err}
	}
	flat := make(map[string][]string)
	if err := flatten("", m, flat); err != nil {
		return ParseError{err}
	}

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range flat[key] {
			if err := set(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func flatten(prefix string, m map[interface{}]interface{}, out map[string][]string) error {
	for k, val := range m {
		key, err := valToStr(k)
		if err != nil {
			return err
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := val.(map[interface{}]interface{}); ok {
			if err := flatten(key, nested, out); err != nil {
				return err
			}
			continue
		}
		if _, dup := out[key]; dup {
			return fmt.Errorf("%s is set more than once", key)
		}
		values, err := valsToStrs(val)
		if err != nil {
			return err
		}
		out[key] = values
	}
	return nil
}

func valsToStrs(val interface{}) ([]string, error) {
	if vals, ok := val.([]interface{}); ok {
		ss := make([]string, len(vals))
		for i := range vals {
			s, err := valToStr(vals[i])
			if err != nil {
				return nil, err
			}
			ss[i] = s
		}
		return ss, nil
	}
	s, err := valToStr(val)
	if err != nil {
		return nil, err
	}
	return []string{s}, nil

}

func valToStr(val interface{}) (string, error) {
	switch v := val.(type) {
	case byte:
		return string([]byte{v}), nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", ff.StringConversionError{Value: val}
	}
}

// ParseError wraps all errors originating from the YAML parser.
type ParseError struct {
	Inner error
}

// Error implenents the error interface.
func (e ParseError) Error() string {
	return fmt.Sprintf("error parsing YAML config: %v", e.Inner)
}

// Unwrap implements the errors.Wrapper interface, allowing errors.Is and
// errors.As to work with ParseErrors.
func (e ParseError) Unwrap() error {
	return e.Inner
}
