package plugin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/andywolf/pluginkit/internal/value"
)

// schema is the structural subset of JSON Schema that manifests and
// fragments need: types, required keys, closed objects, map values, array
// items, string patterns and enums.
type schema struct {
	typ        string
	required   []string
	properties map[string]*schema
	values     *schema // schema for keys not listed in properties
	closed     bool    // reject keys not listed in properties
	items      *schema
	enum       []string
	pattern    *regexp.Regexp
	nonEmpty   bool
	unique     bool
}

func str() *schema { return &schema{typ: "string"} }

func nonEmptyStr() *schema { return &schema{typ: "string", nonEmpty: true} }

func patternStr(p string) *schema {
	return &schema{typ: "string", pattern: regexp.MustCompile(p)}
}

func enumStr(allowed ...string) *schema { return &schema{typ: "string", enum: allowed} }

func arrayOf(item *schema) *schema { return &schema{typ: "array", items: item, unique: true} }

func object(props map[string]*schema, required ...string) *schema {
	return &schema{typ: "object", properties: props, required: required, closed: true}
}

func mapOf(values *schema) *schema { return &schema{typ: "object", values: values} }

// validate appends a problem for every violation found under path.
func (s *schema) validate(path string, v value.Value, errs *problems) {
	if !s.checkType(path, v, errs) {
		return
	}

	switch s.typ {
	case "string":
		text, _ := v.Str()
		if s.nonEmpty && strings.TrimSpace(text) == "" {
			errs.add(path, "must not be empty")
		}
		if s.pattern != nil && !s.pattern.MatchString(text) {
			errs.add(path, "%q does not match pattern %s", text, s.pattern.String())
		}
		if len(s.enum) > 0 && !contains(s.enum, text) {
			errs.add(path, "invalid value %q (allowed: %s)", text, strings.Join(s.enum, ", "))
		}
	case "array":
		seen := make(map[string]bool)
		for i, item := range v.Items() {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if s.items != nil {
				s.items.validate(itemPath, item, errs)
			}
			if s.unique {
				if text, ok := item.Str(); ok {
					if seen[text] {
						errs.add(itemPath, "duplicate entry %q", text)
					}
					seen[text] = true
				}
			}
		}
	case "object":
		for _, key := range s.required {
			if _, ok := v.Get(key); !ok {
				errs.add(join(path, key), "is required")
			}
		}
		for _, key := range v.Keys() {
			field, _ := v.Get(key)
			if prop, ok := s.properties[key]; ok {
				prop.validate(join(path, key), field, errs)
				continue
			}
			if s.values != nil {
				s.values.validate(join(path, key), field, errs)
				continue
			}
			if s.closed {
				errs.add(path, "unexpected property %q", key)
			}
		}
	}
}

func (s *schema) checkType(path string, v value.Value, errs *problems) bool {
	var ok bool
	switch s.typ {
	case "object":
		ok = v.IsObject()
	case "array":
		ok = v.IsArray()
	case "string":
		_, ok = v.Str()
	default:
		return true
	}
	if !ok {
		errs.add(path, "expected %s, got %s", s.typ, describe(v))
	}
	return ok
}

func describe(v value.Value) string {
	switch v.Kind() {
	case value.KindObject:
		return "object"
	case value.KindArray:
		return "array"
	}
	switch v.Scalar().(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	}
	return "number"
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
