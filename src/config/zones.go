package config

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"hover-confirm/src/zones"
)

// ZonesFile is the on-disk zone list.
type ZonesFile struct {
	Reference *Resolution `yaml:"reference,omitempty"`
	Zones     []ZoneEntry `yaml:"zones"`
}

type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type ZoneEntry struct {
	ID       string      `yaml:"id"`
	Action   string      `yaml:"action"`
	Enabled  *bool       `yaml:"enabled,omitempty"`
	Priority int         `yaml:"priority,omitempty"`
	Rects    []RectEntry `yaml:"rects"`
}

type RectEntry struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
}

// LoadZones reads and parses a zones file.
func LoadZones(path string) (*ZonesFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zones file: %w", err)
	}
	defer f.Close()
	return ParseZones(f)
}

// ParseZones decodes a zones document. Unknown fields are rejected; zone-level
// validation is left to zones.Build so one bad zone never fails the file.
func ParseZones(r io.Reader) (*ZonesFile, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var zf ZonesFile
	if err := decoder.Decode(&zf); err != nil {
		if errors.Is(err, io.EOF) {
			return &zf, nil
		}
		return nil, fmt.Errorf("error parsing zones file: %w", err)
	}
	if zf.Reference != nil && (zf.Reference.Width <= 0 || zf.Reference.Height <= 0) {
		return nil, fmt.Errorf("invalid reference resolution %dx%d", zf.Reference.Width, zf.Reference.Height)
	}
	return &zf, nil
}

// Definitions converts the file into zone definitions in declaration order.
func (zf *ZonesFile) Definitions() []zones.Definition {
	defs := make([]zones.Definition, 0, len(zf.Zones))
	for _, z := range zf.Zones {
		enabled := true
		if z.Enabled != nil {
			enabled = *z.Enabled
		}
		rects := make([]image.Rectangle, 0, len(z.Rects))
		for _, r := range z.Rects {
			// No canonicalisation: inverted rectangles must reach zones.Build.
			rects = append(rects, image.Rectangle{Min: image.Pt(r.Left, r.Top), Max: image.Pt(r.Right, r.Bottom)})
		}
		defs = append(defs, zones.Definition{
			ID:       z.ID,
			Rects:    rects,
			ActionID: z.Action,
			Enabled:  enabled,
			Priority: z.Priority,
		})
	}
	return defs
}

// ReferenceOr returns the file's reference resolution, or fallback when unset.
func (zf *ZonesFile) ReferenceOr(fallback image.Point) image.Point {
	if zf.Reference == nil {
		return fallback
	}
	return image.Pt(zf.Reference.Width, zf.Reference.Height)
}
