package template

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the template file format this package reads.
const FormatVersion = "v1"

// Document is the top-level shape of a template file.
type Document struct {
	// Version is the file format version, checked against FormatVersion.
	Version string `yaml:"version"`
	// Root is the template tree.
	Root *Template `yaml:"root"`
}

// Parse decodes a template document from YAML, verifies its format version,
// and normalizes property values (color strings decode to color.RGBA).
func Parse(data []byte) (*Template, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("template: decode: %w", err)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("template: document missing version")
	}
	if !semver.IsValid(doc.Version) {
		return nil, fmt.Errorf("template: invalid version %q", doc.Version)
	}
	if semver.Major(doc.Version) != FormatVersion {
		return nil, fmt.Errorf("template: unsupported version %s (want %s.x)", doc.Version, FormatVersion)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("template: document has no root")
	}
	if err := doc.Root.Validate(); err != nil {
		return nil, err
	}
	normalize(doc.Root)
	return doc.Root, nil
}

// Load reads and parses a template file.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", path, err)
	}
	tmpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("template: %s: %w", path, err)
	}
	return tmpl, nil
}

func normalize(t *Template) {
	for key, value := range t.Properties {
		if s, ok := value.(string); ok {
			if rgba, ok := ParseColor(s); ok {
				t.Properties[key] = rgba
			}
		}
	}
	for _, child := range t.Children {
		normalize(child)
	}
}

// ParseColor decodes a color property value: "#RRGGBB", "#RRGGBBAA", or
// "color:<name>" using the SVG 1.1 color names.
func ParseColor(s string) (color.RGBA, bool) {
	if name, ok := strings.CutPrefix(s, "color:"); ok {
		rgba, found := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
		return rgba, found
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	hex := s[1:]
	var r, g, b, a uint64
	var err error
	switch len(hex) {
	case 6:
		a = 0xFF
	case 8:
		a, err = strconv.ParseUint(hex[6:8], 16, 8)
		if err != nil {
			return color.RGBA{}, false
		}
	default:
		return color.RGBA{}, false
	}
	if r, err = strconv.ParseUint(hex[0:2], 16, 8); err != nil {
		return color.RGBA{}, false
	}
	if g, err = strconv.ParseUint(hex[2:4], 16, 8); err != nil {
		return color.RGBA{}, false
	}
	if b, err = strconv.ParseUint(hex[4:6], 16, 8); err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}, true
}
