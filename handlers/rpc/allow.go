package rpc

import (
	"path"
	"strings"

	"github.com/vizee/gsoap/engine"
	"github.com/vizee/gsoap/metadata"
)

// AllowedMethodsProperty holds a comma or space separated allow-list used
// when the service descriptor declares none.
const AllowedMethodsProperty = "allowedMethods"

func allowList(ctx *engine.Context) []string {
	if svc := ctx.Service(); svc != nil && len(svc.Desc().AllowedMethods) > 0 {
		return svc.Desc().AllowedMethods
	}
	v, ok := ctx.Get(AllowedMethodsProperty)
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case string:
		return strings.FieldsFunc(list, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	return nil
}

// Allowed reports whether op may be invoked in ctx. An empty allow-list
// permits everything; entries are path.Match patterns.
func Allowed(ctx *engine.Context, op *metadata.OperationDesc) bool {
	return allowed(allowList(ctx), op.Name)
}

func allowed(list []string, name string) bool {
	if len(list) == 0 {
		return true
	}
	for _, pattern := range list {
		if pattern == "*" || pattern == name {
			return true
		}
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
