// Package convert turns deserialized wire values into the Go types declared
// by operation signatures.
package convert

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/vizee/gsoap/holder"
)

var ErrUnsupported = errors.New("convert: unsupported conversion")

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"15:04:05",
}

// Convert converts v to type to. Holder targets are allocated and filled,
// holder sources are unwrapped.
func Convert(v any, to reflect.Type) (any, error) {
	if to == nil {
		return v, nil
	}
	if holder.IsHolderType(to) {
		return toHolder(v, to)
	}
	if h, ok := v.(holder.Holder); ok {
		v = h.Get()
	}
	if v == nil {
		return reflect.Zero(to).Interface(), nil
	}
	rv, err := convertValue(reflect.ValueOf(v), to)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func toHolder(v any, to reflect.Type) (any, error) {
	if v != nil && reflect.TypeOf(v) == to {
		return v, nil
	}
	h, err := holder.New(to)
	if err != nil {
		return nil, err
	}
	if src, ok := v.(holder.Holder); ok {
		v = src.Get()
	}
	if v == nil {
		return h, nil
	}
	inner, err := Convert(v, h.Type())
	if err != nil {
		return nil, err
	}
	if err := h.Set(inner); err != nil {
		return nil, err
	}
	return h, nil
}

func unsupported(from reflect.Value, to reflect.Type) error {
	return fmt.Errorf("%w: %s to %s", ErrUnsupported, from.Type(), to)
}

func convertValue(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Type() == to {
		return v, nil
	}
	if to.Kind() == reflect.Interface {
		if v.Type().Implements(to) {
			rv := reflect.New(to).Elem()
			rv.Set(v)
			return rv, nil
		}
		return reflect.Value{}, unsupported(v, to)
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Zero(to), nil
		}
		return convertValue(v.Elem(), to)
	}
	if to.Kind() == reflect.Pointer {
		ev, err := convertValue(v, to.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(to.Elem())
		p.Elem().Set(ev)
		return p, nil
	}

	switch {
	case to == timeType:
		return toTime(v)
	case v.Type() == timeType && to.Kind() == reflect.String:
		s := v.Interface().(time.Time).Format(time.RFC3339Nano)
		return reflect.ValueOf(s).Convert(to), nil
	case to == bytesType && v.Kind() == reflect.String:
		b, err := base64.StdEncoding.DecodeString(v.String())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("convert: decode bytes: %w", err)
		}
		return reflect.ValueOf(b), nil
	case v.Type() == bytesType && to.Kind() == reflect.String:
		return reflect.ValueOf(base64.StdEncoding.EncodeToString(v.Bytes())).Convert(to), nil
	}

	switch to.Kind() {
	case reflect.Bool:
		return toBool(v, to)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return toInt(v, to)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return toUint(v, to)
	case reflect.Float32, reflect.Float64:
		return toFloat(v, to)
	case reflect.String:
		return toString(v, to)
	case reflect.Slice:
		return toSlice(v, to)
	case reflect.Map:
		return toMap(v, to)
	case reflect.Struct:
		return toStruct(v, to)
	}
	if v.Type().ConvertibleTo(to) {
		return v.Convert(to), nil
	}
	return reflect.Value{}, unsupported(v, to)
}

func toTime(v reflect.Value) (reflect.Value, error) {
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return reflect.ValueOf(t), nil
			}
		}
		return reflect.Value{}, fmt.Errorf("convert: invalid time %q", s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(time.Unix(v.Int(), 0).UTC()), nil
	case reflect.Float32, reflect.Float64:
		sec, frac := math.Modf(v.Float())
		return reflect.ValueOf(time.Unix(int64(sec), int64(frac*1e9)).UTC()), nil
	}
	if v.Type().ConvertibleTo(timeType) {
		return v.Convert(timeType), nil
	}
	return reflect.Value{}, unsupported(v, timeType)
}

func toBool(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	var b bool
	switch v.Kind() {
	case reflect.Bool:
		b = v.Bool()
	case reflect.String:
		var err error
		b, err = strconv.ParseBool(strings.TrimSpace(v.String()))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("convert: %w", err)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b = v.Int() != 0
	case reflect.Float32, reflect.Float64:
		b = v.Float() != 0
	default:
		return reflect.Value{}, unsupported(v, to)
	}
	return reflect.ValueOf(b).Convert(to), nil
}

func toInt(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	var n int64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return reflect.Value{}, fmt.Errorf("convert: %d overflows %s", u, to)
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
			return reflect.Value{}, fmt.Errorf("convert: %v is not an integer", f)
		}
		n = int64(f)
	case reflect.String:
		var err error
		n, err = strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("convert: %w", err)
		}
	case reflect.Bool:
		if v.Bool() {
			n = 1
		}
	default:
		return reflect.Value{}, unsupported(v, to)
	}
	rv := reflect.New(to).Elem()
	if rv.OverflowInt(n) {
		return reflect.Value{}, fmt.Errorf("convert: %d overflows %s", n, to)
	}
	rv.SetInt(n)
	return rv, nil
}

func toUint(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	var n uint64
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = v.Uint()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if i < 0 {
			return reflect.Value{}, fmt.Errorf("convert: %d overflows %s", i, to)
		}
		n = uint64(i)
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != math.Trunc(f) || f < 0 || f >= 1<<64 {
			return reflect.Value{}, fmt.Errorf("convert: %v is not an unsigned integer", f)
		}
		n = uint64(f)
	case reflect.String:
		var err error
		n, err = strconv.ParseUint(strings.TrimSpace(v.String()), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("convert: %w", err)
		}
	default:
		return reflect.Value{}, unsupported(v, to)
	}
	rv := reflect.New(to).Elem()
	if rv.OverflowUint(n) {
		return reflect.Value{}, fmt.Errorf("convert: %d overflows %s", n, to)
	}
	rv.SetUint(n)
	return rv, nil
}

func toFloat(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	var f float64
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f = v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(v.Uint())
	case reflect.String:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("convert: %w", err)
		}
	default:
		return reflect.Value{}, unsupported(v, to)
	}
	rv := reflect.New(to).Elem()
	if rv.OverflowFloat(f) {
		return reflect.Value{}, fmt.Errorf("convert: %v overflows %s", f, to)
	}
	rv.SetFloat(f)
	return rv, nil
}

func toString(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	var s string
	switch v.Kind() {
	case reflect.String:
		s = v.String()
	case reflect.Bool:
		s = strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s = strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s = strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(v.Float(), 'g', -1, 64)
	default:
		return reflect.Value{}, unsupported(v, to)
	}
	return reflect.ValueOf(s).Convert(to), nil
}

func toSlice(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return reflect.Value{}, unsupported(v, to)
	}
	out := reflect.MakeSlice(to, v.Len(), v.Len())
	for i := 0; i < v.Len(); i++ {
		ev, err := convertElem(v.Index(i), to.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func toMap(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if v.Kind() != reflect.Map {
		return reflect.Value{}, unsupported(v, to)
	}
	out := reflect.MakeMapWithSize(to, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := convertElem(iter.Key(), to.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		e, err := convertElem(iter.Value(), to.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("[%v]: %w", iter.Key(), err)
		}
		out.SetMapIndex(k, e)
	}
	return out, nil
}

// toStruct fills exported fields from a string keyed map. Keys match the
// `soap` tag or, case-insensitively, the field name.
func toStruct(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		if v.Type().ConvertibleTo(to) {
			return v.Convert(to), nil
		}
		return reflect.Value{}, unsupported(v, to)
	}
	out := reflect.New(to).Elem()
	iter := v.MapRange()
	for iter.Next() {
		idx, ok := FieldIndex(to, iter.Key().String())
		if !ok {
			continue
		}
		f := to.Field(idx)
		e, err := convertElem(iter.Value(), f.Type)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%s: %w", f.Name, err)
		}
		out.Field(idx).Set(e)
	}
	return out, nil
}

// FieldIndex finds the exported field of struct type t carrying wire name name.
func FieldIndex(t reflect.Type, name string) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("soap"), ","); tag != "" {
			if tag == name {
				return i, true
			}
			continue
		}
		if strings.EqualFold(f.Name, name) {
			return i, true
		}
	}
	return 0, false
}

func convertElem(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(to), nil
		}
		v = v.Elem()
	}
	if holder.IsHolderType(to) {
		h, err := toHolder(v.Interface(), to)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(h), nil
	}
	return convertValue(v, to)
}
