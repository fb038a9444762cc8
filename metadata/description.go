package metadata

import (
	"encoding/xml"

	"github.com/vizee/gsoap/soap"
)

// Description is the document generated for a service.
type Description struct {
	XMLName    xml.Name       `xml:"service"`
	Name       string         `xml:"name,attr"`
	Namespace  string         `xml:"namespace,attr,omitempty"`
	Style      string         `xml:"style,attr"`
	Use        string         `xml:"use,attr"`
	Scope      string         `xml:"scope,attr"`
	Endpoint   string         `xml:"endpoint,omitempty"`
	Operations []OperationDoc `xml:"operation"`
}

type OperationDoc struct {
	Name          string     `xml:"name,attr"`
	Element       string     `xml:"element,attr"`
	MEP           string     `xml:"mep,attr"`
	Documentation string     `xml:"documentation,omitempty"`
	Params        []ParamDoc `xml:"parameter"`
	Return        *ParamDoc  `xml:"return,omitempty"`
	Faults        []ParamDoc `xml:"fault"`
}

type ParamDoc struct {
	Name      string `xml:"name,attr"`
	Mode      string `xml:"mode,attr,omitempty"`
	Type      string `xml:"type,attr"`
	Order     int    `xml:"order,attr"`
	InHeader  bool   `xml:"inHeader,attr,omitempty"`
	OutHeader bool   `xml:"outHeader,attr,omitempty"`
}

func paramDoc(p *ParamDesc) ParamDoc {
	return ParamDoc{
		Name:      p.Name.String(),
		Mode:      p.Mode.String(),
		Type:      p.XMLType.String(),
		Order:     p.Order,
		InHeader:  p.InHeader,
		OutHeader: p.OutHeader,
	}
}

// NewDescription describes sd. Operations rejected by allowed are left out.
func NewDescription(sd *ServiceDesc, allowed func(op *OperationDesc) bool) *Description {
	doc := &Description{
		Name:      sd.Name,
		Namespace: sd.Namespace,
		Style:     sd.Style.String(),
		Use:       sd.Use.String(),
		Scope:     sd.Scope.String(),
	}
	for _, op := range sd.operations {
		if allowed != nil && !allowed(op) {
			continue
		}
		od := OperationDoc{
			Name:          op.Name,
			Element:       op.ElementQName.String(),
			MEP:           op.MEP.String(),
			Documentation: op.Documentation,
		}
		for _, p := range op.params {
			od.Params = append(od.Params, paramDoc(p))
		}
		if op.Return != nil {
			r := paramDoc(op.Return)
			if op.Return.Name.IsZero() {
				r.Name = soap.QName{Local: op.Name + "Return"}.String()
			}
			r.Mode = ""
			od.Return = &r
		}
		for _, f := range op.faults {
			od.Faults = append(od.Faults, ParamDoc{Name: f.Name.String(), Type: f.XMLType.String(), Order: -1})
		}
		doc.Operations = append(doc.Operations, od)
	}
	return doc
}
