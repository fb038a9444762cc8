package metadata

import (
	"fmt"
	"reflect"

	"github.com/vizee/gsoap/soap"
)

type ParamMode uint8

const (
	In ParamMode = iota + 1
	Out
	InOut
)

func (m ParamMode) String() string {
	switch m {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	}
	return "unknown"
}

func ParseParamMode(s string) (ParamMode, error) {
	switch s {
	case "", "in", "IN":
		return In, nil
	case "out", "OUT":
		return Out, nil
	case "inout", "INOUT":
		return InOut, nil
	}
	return 0, fmt.Errorf("unknown parameter mode %q", s)
}

// ParamDesc describes one parameter of an operation. Order is the positional
// index in the call signature, -1 for loosely described parameters.
type ParamDesc struct {
	Name      soap.QName
	Mode      ParamMode
	Type      reflect.Type
	XMLType   soap.QName
	InHeader  bool
	OutHeader bool
	Order     int
	IsReturn  bool
}

func (p *ParamDesc) IsInput() bool {
	return p.Mode == In || p.Mode == InOut
}

func (p *ParamDesc) IsOutput() bool {
	return p.Mode == Out || p.Mode == InOut
}

func (p *ParamDesc) String() string {
	return fmt.Sprintf("%s %s %v", p.Mode, p.Name, p.Type)
}

type FaultDesc struct {
	Name    soap.QName
	Type    reflect.Type
	XMLType soap.QName
}
