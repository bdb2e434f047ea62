package orm

import (
	"fmt"
	"reflect"
)

// Clearer is implemented by patches that can set nullable columns back to
// NULL. A nil pointer field means "leave alone", so clearing is named
// explicitly instead.
type Clearer interface {
	Cleared() []string
}

// Changes flattens a patch struct into a column map. Only pointer fields
// with a db tag are considered and nil pointers are skipped. Columns named
// by a Clearer map to nil.
func Changes(patch interface{}) (map[string]interface{}, error) {
	rv := reflect.ValueOf(patch)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("orm: changes must be a struct, got %T", patch)
	}

	rt := rv.Type()
	changes := make(map[string]interface{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := f.Tag.Get("db")
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() != reflect.Ptr {
			return nil, fmt.Errorf("orm: field %s of %s must be a pointer", f.Name, rt.Name())
		}
		if fv.IsNil() {
			continue
		}
		changes[name] = fv.Elem().Interface()
	}

	if c, ok := patch.(Clearer); ok {
		for _, name := range c.Cleared() {
			if _, set := changes[name]; set {
				return nil, fmt.Errorf("orm: column %s is both set and cleared", name)
			}
			changes[name] = nil
		}
	}
	return changes, nil
}
