package pbwire

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/vizee/gsoap/holder"
)

var timeType = reflect.TypeOf(time.Time{})

// normalize reduces v to the value shapes structpb accepts: nil, bool,
// numbers, string, []any and map[string]any.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case holder.Holder:
		return normalize(x.Get())
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case bool, string, int, int32, int64, uint, uint32, uint64, float32, float64:
		return x, nil
	}
	return normalizeValue(reflect.ValueOf(v))
}

func normalizeValue(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Kind() == reflect.Pointer && rv.Type().Implements(reflect.TypeOf((*error)(nil)).Elem()) && rv.Elem().Kind() == reflect.Struct {
			m, err := structMap(rv.Elem())
			if err != nil {
				return nil, err
			}
			m["message"] = rv.Interface().(error).Error()
			return m, nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		a := make([]any, rv.Len())
		for i := range a {
			e, err := normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			a[i] = e
		}
		return a, nil
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			e, err := normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			m[fmt.Sprint(iter.Key().Interface())] = e
		}
		return m, nil
	case reflect.Struct:
		if rv.Type() == timeType {
			return rv.Interface().(time.Time).Format(time.RFC3339Nano), nil
		}
		return structMap(rv)
	}
	return nil, fmt.Errorf("pbwire: cannot encode %v", rv.Type())
}

func structMap(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	m := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("soap"), ","); tag != "" {
			if tag == "-" {
				continue
			}
			name = tag
		}
		e, err := normalize(rv.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		m[name] = e
	}
	return m, nil
}
