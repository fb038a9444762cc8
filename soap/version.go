package soap

import "fmt"

const (
	Envelope11Namespace = "http://schemas.xmlsoap.org/soap/envelope/"
	Envelope12Namespace = "http://www.w3.org/2003/05/soap-envelope"
	RPC12Namespace      = "http://www.w3.org/2003/05/soap-rpc"
	XSDNamespace        = "http://www.w3.org/2001/XMLSchema"

	Actor11Next            = "http://schemas.xmlsoap.org/soap/actor/next"
	Role12Next             = "http://www.w3.org/2003/05/soap-envelope/role/next"
	Role12None             = "http://www.w3.org/2003/05/soap-envelope/role/none"
	Role12UltimateReceiver = "http://www.w3.org/2003/05/soap-envelope/role/ultimateReceiver"
)

// RPCResult is the abstract result element SOAP 1.2 RPC replies put before the return value.
var RPCResult = QName{Space: RPC12Namespace, Local: "result"}

type Version uint8

const (
	SOAP11 Version = iota + 1
	SOAP12
)

func ParseVersion(s string) (Version, error) {
	switch s {
	case "1.1", "11", "soap11":
		return SOAP11, nil
	case "1.2", "12", "soap12":
		return SOAP12, nil
	}
	return 0, fmt.Errorf("unknown soap version %q", s)
}

func (v Version) String() string {
	switch v {
	case SOAP11:
		return "1.1"
	case SOAP12:
		return "1.2"
	}
	return "unknown"
}

func (v Version) EnvelopeNamespace() string {
	if v == SOAP12 {
		return Envelope12Namespace
	}
	return Envelope11Namespace
}

func (v Version) RoleNext() string {
	if v == SOAP12 {
		return Role12Next
	}
	return Actor11Next
}

// IsNextRole accepts the next role URI of either protocol revision.
func IsNextRole(role string) bool {
	return role == Actor11Next || role == Role12Next
}
