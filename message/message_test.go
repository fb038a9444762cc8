package message

import (
	"testing"

	"github.com/vizee/gsoap/soap"
)

func TestMessage_Header(t *testing.T) {
	m := New(soap.SOAP11)
	m.AddHeader(&Header{Name: soap.NewQName("urn:a", "token"), Value: "t"})
	tests := []struct {
		name  string
		query soap.QName
		found bool
	}{
		{name: "qualified", query: soap.NewQName("urn:a", "token"), found: true},
		{name: "unqualified", query: soap.NewQName("", "token"), found: true},
		{name: "other_ns", query: soap.NewQName("urn:b", "token")},
		{name: "missing", query: soap.NewQName("urn:a", "other")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Header(tt.query); (got != nil) != tt.found {
				t.Errorf("Message.Header(%v) = %v, want found %v", tt.query, got, tt.found)
			}
		})
	}
}

func TestHeader_MarkProcessed(t *testing.T) {
	h := &Header{Name: soap.NewQName("urn:a", "x"), MustUnderstand: true}
	if h.Processed() {
		t.Fatal("new header is processed")
	}
	h.MarkProcessed()
	if !h.Processed() {
		t.Fatal("header not processed after MarkProcessed")
	}
}

func TestMessage_Param(t *testing.T) {
	m := New(soap.SOAP12)
	m.AddParam(soap.NewQName("", "a"), 1)
	m.AddParam(soap.NewQName("", "b"), 2)
	if p := m.Param(soap.NewQName("", "b")); p == nil || p.Value != 2 {
		t.Fatalf("Message.Param(b) = %v", p)
	}
	if m.IsFault() {
		t.Fatal("rpc message reported as fault")
	}
	if !NewFault(soap.SOAP12, soap.ServerFault("x")).IsFault() {
		t.Fatal("fault message not reported as fault")
	}
}
