package treefile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/live"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Format is a tree document format.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatHTML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return 0, errors.New("E303").WithDetail("cannot load " + path)
	}
}

// LoadFile reads a tree document, picking the format from its extension.
func (l *Loader) LoadFile(path string) (*vdom.VNode, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E501").WithDetail("cannot read " + path).Wrap(err)
	}
	return l.parse(data, format, path)
}

// Parse converts document data in the given format to a node tree.
func (l *Loader) Parse(data []byte, format Format) (*vdom.VNode, error) {
	return l.parse(data, format, "")
}

func (l *Loader) parse(data []byte, format Format, file string) (*vdom.VNode, error) {
	var doc Node
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, parseError(file, format, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, parseError(file, format, err)
		}
	case FormatHTML:
		root, err := dom.ParseHTML(dom.NewDocument(), bytes.NewReader(data))
		if err != nil {
			return nil, parseError(file, format, err)
		}
		return live.Virtualize(root), nil
	default:
		return nil, errors.New("E303").WithDetail("format " + format.String())
	}
	return l.Build(&doc, file)
}

// LoadFile reads one tree document with a fresh Loader.
func LoadFile(path string) (*vdom.VNode, error) {
	return NewLoader().LoadFile(path)
}

func parseError(file string, format Format, err error) error {
	detail := "invalid " + format.String()
	if file != "" {
		detail += " in " + file
	}
	return errors.New("E301").WithDetail(detail + ": " + err.Error()).Wrap(err)
}
