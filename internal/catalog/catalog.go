// Package catalog loads the per-model memory layouts that the
// extractors need to walk a device's ringbuffer: ringbuffer bounds,
// packet size, fingerprint location. The shipped catalog covers the
// models this module was grounded on; callers merge in additional
// models from their own YAML file the same way the teacher's
// internal/config stages Load, Validate and Normalize.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Family identifies which extraction algorithm a model's ringbuffer
// uses.
type Family string

const (
	FamilyA Family = "a" // paired logbook+profile ringbuffers, backward traversal
	FamilyB Family = "b" // single ringbuffer, linked-list chain traversal
)

// Layout describes one model's memory geometry. Both families use
// PacketSize/ProfileBegin/ProfileEnd. Family A also uses
// PointerAddress/LogbookBegin/LogbookEnd/LogbookEmpty, and its
// fingerprint is always the first 8 bytes of a logbook entry; Family
// B also uses HeaderAddress/MinRead/SerialOffset/SerialSize and
// FingerprintOffset/FingerprintSize.
type Layout struct {
	Model  string `yaml:"model"`
	Family Family `yaml:"family"`

	PacketSize        int    `yaml:"packet_size"`
	FingerprintOffset int    `yaml:"fingerprint_offset"`
	FingerprintSize   int    `yaml:"fingerprint_size"`

	ProfileBegin uint32 `yaml:"profile_begin"`
	ProfileEnd   uint32 `yaml:"profile_end"`

	// Family A only.
	PointerAddress uint32 `yaml:"pointer_address,omitempty"`
	LogbookBegin   uint32 `yaml:"logbook_begin,omitempty"`
	LogbookEnd     uint32 `yaml:"logbook_end,omitempty"`
	LogbookEmpty   uint32 `yaml:"logbook_empty,omitempty"`

	// Family B only.
	HeaderAddress uint32 `yaml:"header_address,omitempty"`
	MinRead       int    `yaml:"min_read,omitempty"`
	SerialOffset  uint32 `yaml:"serial_offset,omitempty"`
	SerialSize    int    `yaml:"serial_size,omitempty"`
}

// document mirrors the on-disk/embedded YAML shape.
type document struct {
	Models []Layout `yaml:"models"`
}

//go:embed models.yaml
var defaultModelsYAML []byte

// Catalog is a set of layouts indexed by model name.
type Catalog struct {
	byModel map[string]Layout
}

// Default returns the catalog built from the layouts shipped with
// this module.
func Default() (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(defaultModelsYAML, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse embedded models.yaml: %w", err)
	}
	return build(doc.Models)
}

// Load reads path and merges its models into the default catalog,
// a model present in both wins with the value from path. Validate and
// Normalize run over the merged set before it is returned, the same
// staging the teacher's config package uses.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	var base document
	if err := yaml.Unmarshal(defaultModelsYAML, &base); err != nil {
		return nil, fmt.Errorf("catalog: parse embedded models.yaml: %w", err)
	}

	merged := make(map[string]Layout, len(base.Models)+len(doc.Models))
	for _, l := range base.Models {
		merged[l.Model] = l
	}
	for _, l := range doc.Models {
		merged[l.Model] = l
	}

	layouts := make([]Layout, 0, len(merged))
	for _, l := range merged {
		layouts = append(layouts, l)
	}
	return build(layouts)
}

func build(layouts []Layout) (*Catalog, error) {
	c := &Catalog{byModel: make(map[string]Layout, len(layouts))}
	for _, l := range layouts {
		if err := Validate(l); err != nil {
			return nil, fmt.Errorf("catalog: model %q: %w", l.Model, err)
		}
		Normalize(&l)
		c.byModel[l.Model] = l
	}
	return c, nil
}

// Lookup returns the layout for model, and whether it was found.
func (c *Catalog) Lookup(model string) (Layout, bool) {
	l, ok := c.byModel[model]
	return l, ok
}

// Models lists every model name the catalog knows.
func (c *Catalog) Models() []string {
	out := make([]string, 0, len(c.byModel))
	for m := range c.byModel {
		out = append(out, m)
	}
	return out
}
