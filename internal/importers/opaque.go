package importers

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// Opaque holds a structured value the authoring tool produced (configuration,
// answers, scoring rules). The pipeline never looks inside it; it only
// re-serializes it into a canonical form before storage.
type Opaque []byte

func (o *Opaque) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = nil
		return nil
	}
	*o = append((*o)[:0], trimmed...)
	return nil
}

// UnmarshalXML reads the element text. JSON text is kept as is; anything else
// is stored as a JSON string.
func (o *Opaque) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		*o = nil
		return nil
	}
	if json.Valid([]byte(text)) {
		*o = Opaque(text)
		return nil
	}
	encoded, err := json.Marshal(text)
	if err != nil {
		return err
	}
	*o = Opaque(encoded)
	return nil
}

func (o Opaque) IsEmpty() bool {
	return len(o) == 0
}

// Canonical returns the value re-encoded as compact JSON with sorted object
// keys and numbers kept verbatim. Empty input yields nil.
func (o Opaque) Canonical() (datatypes.JSON, error) {
	if o.IsEmpty() {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(o))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("not valid JSON: trailing data")
	}
	if v == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return datatypes.JSON(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// FlexString accepts a JSON string, number or boolean and keeps its text.
// Parameter values are written by hand as often as by the tool.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*f = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case trimmed[0] == '{' || trimmed[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return err
		}
		*f = FlexString(buf.String())
	default:
		*f = FlexString(trimmed)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Optional is a scalar the document may leave out. JSON null and blank XML
// element text both leave it unset, so <order/> means "no order" rather than 0.
type Optional[T int | float64 | bool] struct {
	Value T
	Set   bool
}

func Some[T int | float64 | bool](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o *Optional[T]) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		*o = Optional[T]{}
		return nil
	}

	var v T
	var err error
	switch p := any(&v).(type) {
	case *int:
		*p, err = strconv.Atoi(text)
	case *float64:
		*p, err = strconv.ParseFloat(text, 64)
	case *bool:
		*p, err = strconv.ParseBool(text)
	}
	if err != nil {
		return fmt.Errorf("element <%s>: %w", start.Name.Local, err)
	}
	*o = Some(v)
	return nil
}

// Or returns the value, or def when it was left out.
func (o Optional[T]) Or(def T) T {
	if o.Set {
		return o.Value
	}
	return def
}

// Ptr returns nil when the value was left out.
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}
