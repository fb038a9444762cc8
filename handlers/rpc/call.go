package rpc

import (
	"context"

	"github.com/vizee/gsoap/holder"
	"github.com/vizee/gsoap/internal/convert"
	"github.com/vizee/gsoap/message"
	"github.com/vizee/gsoap/metadata"
	"github.com/vizee/gsoap/soap"
)

type boundHolder struct {
	param  *metadata.ParamDesc
	holder holder.Holder
}

// Call is the argument list of one invocation, bound from wire parameters.
type Call struct {
	op      *metadata.OperationDesc
	args    []any
	filled  []bool
	bound   map[*metadata.ParamDesc]bool
	holders []boundHolder
	lastIn  int
}

func newCall(op *metadata.OperationDesc) *Call {
	return &Call{op: op, lastIn: -1}
}

// bind binds wire parameters to op and allocates holders for its outputs.
// Converted values are written back into params. check, when set, runs once
// the inputs are bound and can stop the call before any output is allocated.
func bind(op *metadata.OperationDesc, params []*message.Param, check func(op *metadata.OperationDesc) error) (*Call, error) {
	c := newCall(op)
	if err := c.bindInputs(params); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(op); err != nil {
			return nil, err
		}
	}
	if err := c.allocateOutputs(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Call) Args() []any {
	return c.args
}

func (c *Call) place(pos int, v any) int {
	if pos < 0 || pos >= len(c.args) || c.filled[pos] {
		c.args = append(c.args, v)
		c.filled = append(c.filled, true)
		return len(c.args) - 1
	}
	c.args[pos] = v
	c.filled[pos] = true
	return pos
}

func (c *Call) bindInputs(params []*message.Param) error {
	n := max(c.op.NumParams(), len(params))
	c.args = make([]any, n)
	c.filled = make([]bool, n)
	c.bound = make(map[*metadata.ParamDesc]bool, len(params))

	inParams := c.op.InParams()
	for i, wp := range params {
		pd := c.op.InParamByQName(wp.Name)
		if pd == nil && wp.Name.Space == "" && i < len(inParams) && !c.bound[inParams[i]] {
			pd = inParams[i]
		}

		value := wp.Value
		if pd != nil && pd.Type != nil {
			v, err := convert.Convert(value, pd.Type)
			if err != nil {
				return soap.ClientFault("cannot convert parameter %s to %v: %v", wp.Name.Local, pd.Type, err).
					WithSubcode(soap.SubcodeBadArguments).WithCause(err)
			}
			value = v
			wp.Value = v
		}

		pos := i
		if pd != nil {
			c.bound[pd] = true
			if pd.Order >= 0 {
				pos = pd.Order
			}
			if pd.Mode == metadata.InOut {
				h, ok := value.(holder.Holder)
				if !ok {
					return soap.ServerFault("invalid output parameter %s: %T is not a holder", pd.Name.Local, value).
						WithSubcode(soap.SubcodeInvalidOutputParameter)
				}
				c.holders = append(c.holders, boundHolder{param: pd, holder: h})
			}
		}
		c.lastIn = max(c.lastIn, c.place(pos, value))
	}
	return nil
}

func (c *Call) allocateOutputs() error {
	for _, pd := range c.op.Params() {
		if !pd.IsOutput() || c.bound[pd] {
			continue
		}
		if pd.Order >= 0 && pd.Order < len(c.filled) && c.filled[pd.Order] {
			continue
		}
		if !holder.IsHolderType(pd.Type) {
			return soap.ServerFault("invalid output parameter %s: %v is not a holder type", pd.Name.Local, pd.Type).
				WithSubcode(soap.SubcodeInvalidOutputParameter)
		}
		h, err := holder.New(pd.Type)
		if err != nil {
			return soap.ServerFault("invalid output parameter %s: %v", pd.Name.Local, err).
				WithSubcode(soap.SubcodeInvalidOutputParameter).WithCause(err)
		}
		pos := pd.Order
		if pos < 0 {
			pos = c.lastIn + 1
		}
		c.place(pos, h)
		c.bound[pd] = true
		c.holders = append(c.holders, boundHolder{param: pd, holder: h})
	}
	c.trim()
	return nil
}

// trim drops unfilled trailing slots reserved for parameters absent from
// the wire, so arity problems surface as argument mismatches.
func (c *Call) trim() {
	n := len(c.args)
	for n > c.op.NumParams() && !c.filled[n-1] {
		n--
	}
	c.args = c.args[:n]
	c.filled = c.filled[:n]
}

func (c *Call) Invoke(ctx context.Context, backend any) (any, error) {
	return c.op.Call(ctx, backend, c.args)
}

// Reply builds the response message for a completed call.
func (c *Call) Reply(v soap.Version, namespace string, ret any) *message.Message {
	resp := message.New(v)
	resp.Operation = soap.QName{Space: namespace, Local: c.op.Name + "Response"}
	if rp := c.op.Return; rp != nil {
		name := rp.Name
		if name.IsZero() {
			name = soap.QName{Local: c.op.Name + "Return"}
		}
		if rp.OutHeader {
			resp.AddHeader(&message.Header{Name: name, Value: ret})
		} else {
			if v == soap.SOAP12 {
				resp.AddParam(soap.RPCResult, name.Local)
			}
			resp.AddParam(name, ret)
		}
	}
	for _, bh := range c.holders {
		if bh.param.OutHeader {
			resp.AddHeader(&message.Header{Name: bh.param.Name, Value: bh.holder.Get()})
		} else {
			resp.AddParam(bh.param.Name, bh.holder.Get())
		}
	}
	return resp
}
