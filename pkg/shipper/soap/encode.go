package soap

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tournevent/kargo/pkg/shipper"
)

// Field is one named SOAP parameter.
type Field struct {
	Name  string
	Value any
}

// Fields is an ordered parameter list. Document/literal services validate
// element order, so operation parameters are built as Fields rather than maps.
type Fields []Field

// MarshalXML writes each field as a child element of start.
func (f Fields) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, field := range f {
		if err := encodeValue(e, field.Name, field.Value); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Fragment renders f as a standalone element, for services that take an XML
// document inside a string parameter.
func Fragment(name string, f Fields) (string, error) {
	var buf strings.Builder
	enc := xml.NewEncoder(&buf)
	if err := f.MarshalXML(enc, xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// encodeValue writes v as element name. Slices repeat the element, maps are
// written with sorted keys, scalars become character data.
func encodeValue(e *xml.Encoder, name string, v any) error {
	switch t := v.(type) {
	case Fields:
		return t.MarshalXML(e, xml.StartElement{Name: xml.Name{Local: name}})
	case shipper.Payload:
		return encodeMap(e, name, t)
	case shipper.Result:
		return encodeMap(e, name, t)
	case map[string]any:
		return encodeMap(e, name, t)
	case []any:
		for _, item := range t {
			if err := encodeValue(e, name, item); err != nil {
				return err
			}
		}
		return nil
	case []map[string]any:
		for _, item := range t {
			if err := encodeMap(e, name, item); err != nil {
				return err
			}
		}
		return nil
	case []shipper.Payload:
		for _, item := range t {
			if err := encodeMap(e, name, item); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, item := range t {
			if err := encodeScalar(e, name, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return encodeScalar(e, name, scalarText(v))
	}
}

func encodeMap(e *xml.Encoder, name string, m map[string]any) error {
	return Ordered(m).MarshalXML(e, xml.StartElement{Name: xml.Name{Local: name}})
}

// Ordered converts m to Fields. Keys listed in order come first, in that
// order, when present; the remaining keys follow sorted.
func Ordered(m map[string]any, order ...string) Fields {
	fields := make(Fields, 0, len(m))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if v, ok := m[k]; ok && !seen[k] {
			fields = append(fields, Field{Name: k, Value: v})
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(m)-len(fields))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fields = append(fields, Field{Name: k, Value: m[k]})
	}
	return fields
}

func encodeScalar(e *xml.Encoder, name, text string) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if text != "" {
		if err := e.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return shipper.Stringify(v)
	}
}
