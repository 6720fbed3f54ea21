package importers

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/mrlokans/assessment-importer/internal/entities"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// rootKinds maps document root names (lower case) to the content kind they
// declare. "package" declares none.
var rootKinds = map[string]entities.ContentKind{
	"package":               "",
	"exam":                  entities.KindExam,
	"comprehensivetraining": entities.KindComprehensiveTraining,
	"specializedtraining":   entities.KindSpecializedTraining,
}

// DetectFormat picks the decoder for an upload. A .json or .xml extension
// wins; otherwise the first non-space byte decides.
func DetectFormat(fileName string, content []byte) (entities.ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return entities.ImportFormatJSON, nil
	case ".xml":
		return entities.ImportFormatXML, nil
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(content, utf8BOM), " \t\r\n")
	if len(trimmed) == 0 {
		return "", newError(KindParse, nil, "file %q is empty", fileName)
	}
	switch trimmed[0] {
	case '{', '[':
		return entities.ImportFormatJSON, nil
	case '<':
		return entities.ImportFormatXML, nil
	}
	return "", newError(KindParse, nil, "file %q is neither JSON nor XML", fileName)
}

// Parse decodes an upload into an Envelope. The detected format is the only
// one attempted.
func Parse(fileName string, content []byte) (*Envelope, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, newError(KindParse, nil, "file %q is empty", fileName)
	}

	format, err := DetectFormat(fileName, content)
	if err != nil {
		return nil, err
	}

	var env *Envelope
	switch format {
	case entities.ImportFormatJSON:
		env, err = parseJSON(content)
	default:
		env, err = parseXML(content)
	}
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			return nil, ie
		}
		return nil, newError(KindParse, err, "invalid %s in %q", strings.ToUpper(string(format)), fileName)
	}
	env.Format = format
	return env, nil
}

type jsonWrapper struct {
	Package               *PackageDTO  `json:"package"`
	Exam                  *PackageDTO  `json:"exam"`
	ComprehensiveTraining *PackageDTO  `json:"comprehensiveTraining"`
	SpecializedTraining   *PackageDTO  `json:"specializedTraining"`
	Metadata              *MetadataDTO `json:"metadata"`
}

func parseJSON(content []byte) (*Envelope, error) {
	value, err := hujson.Parse(content)
	if err != nil {
		return nil, err
	}
	value.Standardize()
	standard := value.Pack()

	if value.Value.Kind() != '{' {
		return nil, newError(KindParse, nil, "JSON document root must be an object")
	}

	// encoding/json matches property names case-insensitively.
	var wrapper jsonWrapper
	if err := json.Unmarshal(standard, &wrapper); err != nil {
		return nil, err
	}

	roots := []struct {
		dto  *PackageDTO
		kind entities.ContentKind
	}{
		{wrapper.Package, ""},
		{wrapper.Exam, entities.KindExam},
		{wrapper.ComprehensiveTraining, entities.KindComprehensiveTraining},
		{wrapper.SpecializedTraining, entities.KindSpecializedTraining},
	}

	env := &Envelope{Metadata: wrapper.Metadata}
	found := 0
	for _, root := range roots {
		if root.dto == nil {
			continue
		}
		found++
		env.Package = *root.dto
		env.DeclaredKind = root.kind
	}
	switch found {
	case 0:
		// Bare package document.
		env.Metadata = nil
		if err := json.Unmarshal(standard, &env.Package); err != nil {
			return nil, err
		}
	case 1:
	default:
		return nil, newError(KindParse, nil, "JSON document has more than one package root")
	}
	return env, nil
}

type xmlWrapper struct {
	Package               *PackageDTO  `xml:"package"`
	Exam                  *PackageDTO  `xml:"exam"`
	ComprehensiveTraining *PackageDTO  `xml:"comprehensivetraining"`
	SpecializedTraining   *PackageDTO  `xml:"specializedtraining"`
	Metadata              *MetadataDTO `xml:"metadata"`
}

func parseXML(content []byte) (*Envelope, error) {
	dec := xml.NewTokenDecoder(&lowerCaseTokens{dec: xml.NewDecoder(bytes.NewReader(content))})

	root, err := firstElement(dec)
	if err != nil {
		return nil, err
	}

	env := &Envelope{}
	if kind, ok := rootKinds[root.Name.Local]; ok {
		if err := dec.DecodeElement(&env.Package, &root); err != nil {
			return nil, err
		}
		env.DeclaredKind = kind
		return env, nil
	}

	var wrapper xmlWrapper
	if err := dec.DecodeElement(&wrapper, &root); err != nil {
		return nil, err
	}
	env.Metadata = wrapper.Metadata

	found := 0
	for _, root := range []struct {
		dto  *PackageDTO
		kind entities.ContentKind
	}{
		{wrapper.Package, ""},
		{wrapper.Exam, entities.KindExam},
		{wrapper.ComprehensiveTraining, entities.KindComprehensiveTraining},
		{wrapper.SpecializedTraining, entities.KindSpecializedTraining},
	} {
		if root.dto == nil {
			continue
		}
		found++
		env.Package = *root.dto
		env.DeclaredKind = root.kind
	}
	switch found {
	case 0:
		return nil, newError(KindParse, nil, "XML document <%s> has no package element", root.Name.Local)
	case 1:
		return env, nil
	default:
		return nil, newError(KindParse, nil, "XML document has more than one package element")
	}
}

func firstElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, fmt.Errorf("no root element")
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

// lowerCaseTokens folds element and attribute names to lower case and drops
// namespaces so struct tags can match names case-insensitively.
type lowerCaseTokens struct {
	dec *xml.Decoder
}

func (l *lowerCaseTokens) Token() (xml.Token, error) {
	tok, err := l.dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case xml.StartElement:
		t.Name = xml.Name{Local: strings.ToLower(t.Name.Local)}
		attrs := make([]xml.Attr, 0, len(t.Attr))
		for _, a := range t.Attr {
			if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
				continue
			}
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: strings.ToLower(a.Name.Local)}, Value: a.Value})
		}
		t.Attr = attrs
		return t, nil
	case xml.EndElement:
		t.Name = xml.Name{Local: strings.ToLower(t.Name.Local)}
		return t, nil
	}
	return xml.CopyToken(tok), nil
}
