package soap

import (
	"errors"
	"fmt"
	"strings"
)

// FaultCode is the version neutral class of a fault. It is rendered per
// protocol revision by Fault.CodeQName.
type FaultCode string

const (
	CodeClient          FaultCode = "Client"
	CodeServer          FaultCode = "Server"
	CodeMustUnderstand  FaultCode = "MustUnderstand"
	CodeVersionMismatch FaultCode = "VersionMismatch"
)

// FaultNamespace qualifies the engine's own fault subcodes.
const FaultNamespace = "urn:gsoap:fault"

var (
	SubcodeNoService              = QName{Space: FaultNamespace, Local: "NoService"}
	SubcodeDisabled               = QName{Space: FaultNamespace, Local: "Disabled"}
	SubcodeServiceDisabled        = QName{Space: FaultNamespace, Local: "ServiceDisabled"}
	SubcodeNoSuchOperation        = QName{Space: FaultNamespace, Local: "NoSuchOperation"}
	SubcodeAccessDenied           = QName{Space: FaultNamespace, Local: "AccessDenied"}
	SubcodeInvalidOutputParameter = QName{Space: FaultNamespace, Local: "InvalidOutputParameter"}
	SubcodeDispatchFailed         = QName{Space: FaultNamespace, Local: "DispatchFailed"}
	SubcodeBadArguments           = QName{Space: FaultNamespace, Local: "BadArguments"}
	SubcodeBusy                   = QName{Space: FaultNamespace, Local: "Busy"}

	ProcedureNotPresent = QName{Space: RPC12Namespace, Local: "ProcedureNotPresent"}
	BadArguments        = QName{Space: RPC12Namespace, Local: "BadArguments"}
)

type FaultDetail struct {
	Name  QName
	Value any
}

// Fault is a protocol level fault. It is the only error type surfaced to
// transports by the engine.
type Fault struct {
	Code          FaultCode
	Subcode       QName
	String        string
	Actor         string
	Detail        []FaultDetail
	NotUnderstood []QName

	cause error
}

func NewFault(code FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, String: fmt.Sprintf(format, args...)}
}

func ClientFault(format string, args ...any) *Fault {
	return NewFault(CodeClient, format, args...)
}

func ServerFault(format string, args ...any) *Fault {
	return NewFault(CodeServer, format, args...)
}

// NoSuchOperation reports an unresolved dispatch key. SOAP 1.2 carries the
// rpc:ProcedureNotPresent subcode.
func NoSuchOperation(v Version, name string) *Fault {
	f := ClientFault("no such operation '%s'", name)
	if v == SOAP12 {
		f.Subcode = ProcedureNotPresent
	} else {
		f.Subcode = SubcodeNoSuchOperation
	}
	return f
}

func (f *Fault) WithSubcode(q QName) *Fault {
	f.Subcode = q
	return f
}

func (f *Fault) WithDetail(name QName, value any) *Fault {
	f.Detail = append(f.Detail, FaultDetail{Name: name, Value: value})
	return f
}

func (f *Fault) WithCause(err error) *Fault {
	f.cause = err
	return f
}

func (f *Fault) Error() string {
	var sb strings.Builder
	sb.WriteString("soap fault ")
	sb.WriteString(string(f.Code))
	if f.Subcode.Local != "" {
		sb.WriteByte('.')
		sb.WriteString(f.Subcode.Local)
	}
	sb.WriteString(": ")
	sb.WriteString(f.String)
	return sb.String()
}

func (f *Fault) Unwrap() error {
	return f.cause
}

// CodeQName renders the fault code for a protocol revision. SOAP 1.1 folds
// the subcode into a dotted local name, SOAP 1.2 renames Client/Server to
// Sender/Receiver and keeps the subcode separate.
func (f *Fault) CodeQName(v Version) QName {
	ns := v.EnvelopeNamespace()
	if v == SOAP12 {
		switch f.Code {
		case CodeClient:
			return QName{Space: ns, Local: "Sender"}
		case CodeServer:
			return QName{Space: ns, Local: "Receiver"}
		}
		return QName{Space: ns, Local: string(f.Code)}
	}
	local := string(f.Code)
	if f.Subcode.Local != "" {
		local += "." + f.Subcode.Local
	}
	return QName{Space: ns, Local: local}
}

// ParseFaultCode is the inverse of CodeQName.
func ParseFaultCode(q QName) (FaultCode, QName) {
	switch q.Local {
	case "Sender":
		return CodeClient, QName{}
	case "Receiver":
		return CodeServer, QName{}
	}
	code, sub, ok := strings.Cut(q.Local, ".")
	if !ok {
		return FaultCode(q.Local), QName{}
	}
	return FaultCode(code), QName{Space: FaultNamespace, Local: sub}
}

// AsFault converts any error into a fault. Faults that already carry a code
// and a message pass through unchanged; everything else becomes a Server
// fault holding the original message.
func AsFault(err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) && f.Code != "" && f.String != "" {
		return f
	}
	return ServerFault("%s", err.Error()).WithCause(err)
}
