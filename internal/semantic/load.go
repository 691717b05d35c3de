package semantic

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Format identifies the syntax of a semantic layer document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".cue":
		return FormatCUE, true
	default:
		return "", false
	}
}

// document mirrors the #SemanticLayer schema for decoding.
type document struct {
	Entities    map[string]entityDoc `json:"entities"`
	ForeignKeys []ForeignKey         `json:"foreign_keys"`
	EnumValues  map[string][]string  `json:"enum_values"`
}

type entityDoc struct {
	Table        string   `json:"table"`
	Column       string   `json:"column"`
	Expression   string   `json:"expression"`
	TablesNeeded []string `json:"tables_needed"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
}

// Load reads a semantic layer file. The format is chosen by extension.
func Load(path string) (*Layer, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, &LoadError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unsupported semantic layer format %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path)),
			Path:    path,
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "semantic layer file not found", Path: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading semantic layer: %v", err), Path: path}
	}

	layer, err := parse(data, format, path)
	if err != nil {
		if le, ok := err.(*LoadError); ok && le.Path == "" {
			le.Path = path
		}
		return nil, err
	}
	return layer, nil
}

// Parse builds a Layer from an in-memory document.
func Parse(data []byte, format Format) (*Layer, error) {
	return parse(data, format, "")
}

func parse(data []byte, format Format, filename string) (*Layer, error) {
	if filename == "" {
		filename = "layer." + string(format)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#SemanticLayer"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("semantic layer schema: %w", err)
	}

	var value cue.Value
	switch format {
	case FormatYAML:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
		}
		if raw == nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: "empty semantic layer document"}
		}
		value = ctx.Encode(raw)
	case FormatJSON, FormatCUE:
		// JSON is valid CUE, so both go through the CUE parser.
		value = ctx.CompileBytes(data, cue.Filename(filename))
	default:
		return nil, &LoadError{Code: ErrCodeUnsupportedFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	if err := value.Err(); err != nil {
		return nil, fromCUEError(ErrCodeParseFailed, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUEError(ErrCodeSchemaViolation, err)
	}

	var doc document
	if err := unified.Decode(&doc); err != nil {
		return nil, fromCUEError(ErrCodeParseFailed, err)
	}

	return NewLayer(doc.definition())
}

func (d document) definition() Definition {
	def := Definition{
		Entities:    make([]Entity, 0, len(d.Entities)),
		ForeignKeys: d.ForeignKeys,
		EnumValues:  d.EnumValues,
	}
	names := make([]string, 0, len(d.Entities))
	for name := range d.Entities {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		e := d.Entities[name]
		def.Entities = append(def.Entities, Entity{
			Name:         name,
			Table:        e.Table,
			Column:       e.Column,
			Expression:   e.Expression,
			TablesNeeded: e.TablesNeeded,
			Kind:         e.Type,
			Description:  e.Description,
		})
	}
	return def
}
