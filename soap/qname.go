package soap

import "strings"

// QName is a namespace qualified name.
type QName struct {
	Space string
	Local string
}

func NewQName(space, local string) QName {
	return QName{Space: space, Local: local}
}

// ParseQName accepts "{ns}local" or a bare local name.
func ParseQName(s string) QName {
	if strings.HasPrefix(s, "{") {
		if i := strings.IndexByte(s, '}'); i > 0 {
			return QName{Space: s[1:i], Local: s[i+1:]}
		}
	}
	return QName{Local: s}
}

func (q QName) IsZero() bool {
	return q.Space == "" && q.Local == ""
}

func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// Matches reports whether q and o name the same element. An unqualified name
// matches any namespace with the same local part.
func (q QName) Matches(o QName) bool {
	if q.Local != o.Local {
		return false
	}
	return q.Space == o.Space || q.Space == "" || o.Space == ""
}
