package convert

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vizee/gsoap/holder"
)

type point struct {
	X    int
	Y    int    `soap:"ypos"`
	Name string `soap:"label,omitempty"`
}

type color string

func TestConvert(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		v       any
		to      reflect.Type
		want    any
		wantErr bool
	}{
		{name: "identity", v: "a", to: reflect.TypeOf(""), want: "a"},
		{name: "nil_target", v: 3, to: nil, want: 3},
		{name: "nil_value", v: nil, to: reflect.TypeOf(0), want: 0},
		{name: "float_to_int", v: 42.0, to: reflect.TypeOf(0), want: 42},
		{name: "fraction_to_int", v: 4.5, to: reflect.TypeOf(0), wantErr: true},
		{name: "overflow_int8", v: 300.0, to: reflect.TypeOf(int8(0)), wantErr: true},
		{name: "string_to_int64", v: " 17 ", to: reflect.TypeOf(int64(0)), want: int64(17)},
		{name: "negative_to_uint", v: -1.0, to: reflect.TypeOf(uint(0)), wantErr: true},
		{name: "int_to_float32", v: 2, to: reflect.TypeOf(float32(0)), want: float32(2)},
		{name: "overflow_float32", v: 1e39, to: reflect.TypeOf(float32(0)), wantErr: true},
		{name: "overflow_float32_string", v: "-1e39", to: reflect.TypeOf(float32(0)), wantErr: true},
		{name: "two_pow_63_to_int64", v: float64(1 << 63), to: reflect.TypeOf(int64(0)), wantErr: true},
		{name: "min_int64", v: float64(-1 << 63), to: reflect.TypeOf(int64(0)), want: int64(-1 << 63)},
		{name: "two_pow_64_to_uint64", v: float64(1 << 64), to: reflect.TypeOf(uint64(0)), wantErr: true},
		{name: "number_to_string", v: 1.5, to: reflect.TypeOf(""), want: "1.5"},
		{name: "string_to_bool", v: "true", to: reflect.TypeOf(false), want: true},
		{name: "named_string", v: "red", to: reflect.TypeOf(color("")), want: color("red")},
		{name: "time_from_string", v: "2024-03-01T12:30:00Z", to: reflect.TypeOf(time.Time{}), want: when},
		{name: "date_from_string", v: "2024-03-01", to: reflect.TypeOf(time.Time{}), want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "time_to_pointer", v: "2024-03-01T12:30:00Z", to: reflect.TypeOf(&time.Time{}), want: &when},
		{name: "time_to_string", v: when, to: reflect.TypeOf(""), want: "2024-03-01T12:30:00Z"},
		{name: "bad_time", v: "yesterday", to: reflect.TypeOf(time.Time{}), wantErr: true},
		{name: "base64_bytes", v: "aGk=", to: reflect.TypeOf([]byte(nil)), want: []byte("hi")},
		{name: "slice", v: []any{1.0, 2.0}, to: reflect.TypeOf([]int(nil)), want: []int{1, 2}},
		{name: "map", v: map[string]any{"a": "1"}, to: reflect.TypeOf(map[string]int(nil)), want: map[string]int{"a": 1}},
		{name: "struct", v: map[string]any{"x": 1.0, "ypos": "2", "label": "p", "extra": true}, to: reflect.TypeOf(point{}), want: point{X: 1, Y: 2, Name: "p"}},
		{name: "holder_unwrap", v: &holder.String{Value: "in"}, to: reflect.TypeOf(""), want: "in"},
		{name: "interface_target", v: 5, to: reflect.TypeOf((*any)(nil)).Elem(), want: 5},
		{name: "unsupported", v: []any{1}, to: reflect.TypeOf(0), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.v, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Convert() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Convert() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvert_Holder(t *testing.T) {
	tests := []struct {
		name string
		v    any
		to   reflect.Type
		want any
	}{
		{name: "wrap", v: "x", to: reflect.TypeOf(&holder.String{}), want: "x"},
		{name: "wrap_convert", v: 3.0, to: reflect.TypeOf(&holder.Int{}), want: 3},
		{name: "empty", v: nil, to: reflect.TypeOf(&holder.Int{}), want: 0},
		{name: "rewrap", v: &holder.Float64{Value: 2}, to: reflect.TypeOf(&holder.Int{}), want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.v, tt.to)
			if err != nil {
				t.Fatal(err)
			}
			h, ok := got.(holder.Holder)
			if !ok || reflect.TypeOf(h) != tt.to {
				t.Fatalf("Convert() = %T, want %v", got, tt.to)
			}
			if h.Get() != tt.want {
				t.Errorf("holder value = %v, want %v", h.Get(), tt.want)
			}
		})
	}

	same := &holder.String{Value: "keep"}
	got, err := Convert(same, reflect.TypeOf(same))
	if err != nil || got != same {
		t.Fatalf("Convert(holder) = %v, %v; want the same holder", got, err)
	}
}

func TestConvert_ErrUnsupported(t *testing.T) {
	_, err := Convert(struct{}{}, reflect.TypeOf(0))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Convert() error = %v, want ErrUnsupported", err)
	}
}
