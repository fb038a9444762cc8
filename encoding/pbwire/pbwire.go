// Package pbwire encodes messages as protobuf Struct documents, either in
// the binary wire format or as canonical protobuf JSON.
package pbwire

import (
	"errors"
	"fmt"

	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/soap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	BinaryContentType = "application/x-protobuf"
	JSONContentType   = "application/json"
)

var ErrMalformed = errors.New("pbwire: malformed message")

type Binary struct{}

func (Binary) ContentType() string {
	return BinaryContentType
}

func (Binary) Encode(m *message.Message) ([]byte, error) {
	s, err := toStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func (Binary) Decode(data []byte) (*message.Message, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromStruct(&s)
}

type JSON struct {
	Indent string
}

func (JSON) ContentType() string {
	return JSONContentType
}

func (j JSON) Encode(m *message.Message) ([]byte, error) {
	s, err := toStruct(m)
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Indent: j.Indent}.Marshal(s)
}

func (JSON) Decode(data []byte) (*message.Message, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fromStruct(&s)
}

func qnameFields(m map[string]any, q soap.QName) map[string]any {
	if q.Space != "" {
		m["namespace"] = q.Space
	}
	m["name"] = q.Local
	return m
}

func toStruct(m *message.Message) (*structpb.Struct, error) {
	v := m.Version
	if v == 0 {
		v = soap.SOAP11
	}
	doc := map[string]any{"version": v.String()}

	if len(m.Headers) > 0 {
		headers := make([]any, 0, len(m.Headers))
		for _, h := range m.Headers {
			value, err := normalize(h.Value)
			if err != nil {
				return nil, fmt.Errorf("header %s: %w", h.Name, err)
			}
			e := qnameFields(map[string]any{"value": value}, h.Name)
			if h.Actor != "" {
				e["actor"] = h.Actor
			}
			if h.MustUnderstand {
				e["mustUnderstand"] = true
			}
			headers = append(headers, e)
		}
		doc["headers"] = headers
	}

	if m.Fault != nil {
		f, err := faultMap(v, m.Fault)
		if err != nil {
			return nil, err
		}
		doc["fault"] = f
	} else {
		params := make([]any, 0, len(m.Params))
		for _, p := range m.Params {
			value, err := normalize(p.Value)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", p.Name, err)
			}
			params = append(params, qnameFields(map[string]any{"value": value}, p.Name))
		}
		doc["body"] = qnameFields(map[string]any{"params": params}, m.Operation)
	}
	return structpb.NewStruct(doc)
}

func faultMap(v soap.Version, f *soap.Fault) (map[string]any, error) {
	fm := map[string]any{
		"code":   f.CodeQName(v).String(),
		"string": f.String,
	}
	if v == soap.SOAP12 && !f.Subcode.IsZero() {
		fm["subcode"] = f.Subcode.String()
	}
	if f.Actor != "" {
		fm["actor"] = f.Actor
	}
	if len(f.Detail) > 0 {
		detail := make([]any, 0, len(f.Detail))
		for _, d := range f.Detail {
			value, err := normalize(d.Value)
			if err != nil {
				return nil, fmt.Errorf("fault detail %s: %w", d.Name, err)
			}
			detail = append(detail, qnameFields(map[string]any{"value": value}, d.Name))
		}
		fm["detail"] = detail
	}
	if len(f.NotUnderstood) > 0 {
		nu := make([]any, len(f.NotUnderstood))
		for i, q := range f.NotUnderstood {
			nu[i] = q.String()
		}
		fm["notUnderstood"] = nu
	}
	return fm, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func qnameOf(m map[string]any) soap.QName {
	return soap.QName{Space: str(m, "namespace"), Local: str(m, "name")}
}

func listOf(m map[string]any, key string) ([]map[string]any, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a list", ErrMalformed, key)
	}
	out := make([]map[string]any, len(items))
	for i, it := range items {
		e, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is not an object", ErrMalformed, key, i)
		}
		out[i] = e
	}
	return out, nil
}

func fromStruct(s *structpb.Struct) (*message.Message, error) {
	doc := s.AsMap()
	m := &message.Message{}
	if vs := str(doc, "version"); vs != "" {
		v, err := soap.ParseVersion(vs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		m.Version = v
	}

	headers, err := listOf(doc, "headers")
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		mu, _ := h["mustUnderstand"].(bool)
		m.AddHeader(&message.Header{
			Name:           qnameOf(h),
			Actor:          str(h, "actor"),
			MustUnderstand: mu,
			Value:          h["value"],
		})
	}

	if fm, ok := doc["fault"].(map[string]any); ok {
		f, err := faultFromMap(fm)
		if err != nil {
			return nil, err
		}
		m.Fault = f
		return m, nil
	}

	body, ok := doc["body"].(map[string]any)
	if !ok {
		if _, present := doc["body"]; present {
			return nil, fmt.Errorf("%w: body is not an object", ErrMalformed)
		}
		return m, nil
	}
	m.Operation = qnameOf(body)
	params, err := listOf(body, "params")
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		m.AddParam(qnameOf(p), p["value"])
	}
	return m, nil
}

func faultFromMap(fm map[string]any) (*soap.Fault, error) {
	code, sub := soap.ParseFaultCode(soap.ParseQName(str(fm, "code")))
	if code == "" {
		return nil, fmt.Errorf("%w: fault without code", ErrMalformed)
	}
	f := &soap.Fault{
		Code:    code,
		Subcode: sub,
		String:  str(fm, "string"),
		Actor:   str(fm, "actor"),
	}
	if s := str(fm, "subcode"); s != "" {
		f.Subcode = soap.ParseQName(s)
	}
	detail, err := listOf(fm, "detail")
	if err != nil {
		return nil, err
	}
	for _, d := range detail {
		f.Detail = append(f.Detail, soap.FaultDetail{Name: qnameOf(d), Value: d["value"]})
	}
	if nu, ok := fm["notUnderstood"].([]any); ok {
		for _, q := range nu {
			if s, ok := q.(string); ok {
				f.NotUnderstood = append(f.NotUnderstood, soap.ParseQName(s))
			}
		}
	}
	return f, nil
}
