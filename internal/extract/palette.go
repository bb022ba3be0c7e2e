package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/kmeans"
)

// Swatch is a palette colour and the number of pixels it stands for.
type Swatch struct {
	Color colour.RGB
	Count uint64
}

// Palette is the result of an extraction, in plain sRGB.
type Palette struct {
	// Space is the colour space the palette was computed in.
	Space colour.Kind

	Outer  colour.RGB
	Inner  colour.RGB
	Accent colour.RGB
	Third  colour.RGB

	Centroids   []Swatch
	InnerColors []Swatch
	OuterColors []Swatch
}

// swatches converts a centroid set to sRGB. Native colours that land on the
// same sRGB value are combined.
func swatches(space colour.Space, set kmeans.Set) []Swatch {
	out := make([]Swatch, 0, len(set))
	index := make(map[colour.RGB]int, len(set))
	for _, c := range set {
		rgb := space.ToRGB(c.Color)
		if i, ok := index[rgb]; ok {
			out[i].Count += c.Count
			continue
		}
		index[rgb] = len(out)
		out = append(out, Swatch{Color: rgb, Count: c.Count})
	}
	return out
}

// SwatchJSON is the JSON form of a Swatch.
type SwatchJSON struct {
	Hex   string `json:"hex"`
	Count uint64 `json:"count"`
}

// PaletteJSON is the JSON form of a Palette.
type PaletteJSON struct {
	Space       string       `json:"space"`
	Outer       string       `json:"outer"`
	Inner       string       `json:"inner"`
	Accent      string       `json:"accent"`
	Third       string       `json:"third"`
	Centroids   []SwatchJSON `json:"centroids"`
	InnerColors []SwatchJSON `json:"innerColors"`
	OuterColors []SwatchJSON `json:"outerColors"`
}

func toSwatchJSON(in []Swatch) []SwatchJSON {
	out := make([]SwatchJSON, len(in))
	for i, s := range in {
		out[i] = SwatchJSON{Hex: s.Color.Hex(), Count: s.Count}
	}
	return out
}

func fromSwatchJSON(in []SwatchJSON) ([]Swatch, error) {
	out := make([]Swatch, len(in))
	for i, s := range in {
		rgb, err := colour.ParseHex(s.Hex)
		if err != nil {
			return nil, err
		}
		out[i] = Swatch{Color: rgb, Count: s.Count}
	}
	return out, nil
}

// JSON returns the JSON form of the palette.
func (p *Palette) JSON() PaletteJSON {
	return PaletteJSON{
		Space:       p.Space.String(),
		Outer:       p.Outer.Hex(),
		Inner:       p.Inner.Hex(),
		Accent:      p.Accent.Hex(),
		Third:       p.Third.Hex(),
		Centroids:   toSwatchJSON(p.Centroids),
		InnerColors: toSwatchJSON(p.InnerColors),
		OuterColors: toSwatchJSON(p.OuterColors),
	}
}

// ToJSON encodes the palette as indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p.JSON(), "", "  ")
}

// ParseJSON decodes a palette produced by ToJSON.
func ParseJSON(data []byte) (*Palette, error) {
	var pj PaletteJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("failed to decode palette: %w", err)
	}

	space, err := colour.ParseKind(pj.Space)
	if err != nil {
		return nil, err
	}
	p := &Palette{Space: space}
	for _, role := range []struct {
		hex string
		dst *colour.RGB
	}{
		{pj.Outer, &p.Outer},
		{pj.Inner, &p.Inner},
		{pj.Accent, &p.Accent},
		{pj.Third, &p.Third},
	} {
		if *role.dst, err = colour.ParseHex(role.hex); err != nil {
			return nil, err
		}
	}
	if p.Centroids, err = fromSwatchJSON(pj.Centroids); err != nil {
		return nil, err
	}
	if p.InnerColors, err = fromSwatchJSON(pj.InnerColors); err != nil {
		return nil, err
	}
	if p.OuterColors, err = fromSwatchJSON(pj.OuterColors); err != nil {
		return nil, err
	}
	return p, nil
}

// Roles returns the four role names and colours in display order.
func (p *Palette) Roles() []struct {
	Name  string
	Color colour.RGB
} {
	return []struct {
		Name  string
		Color colour.RGB
	}{
		{"outer", p.Outer},
		{"inner", p.Inner},
		{"accent", p.Accent},
		{"third", p.Third},
	}
}

// String returns one "role #rrggbb" line per role.
func (p *Palette) String() string {
	var sb strings.Builder
	for _, r := range p.Roles() {
		fmt.Fprintf(&sb, "%-6s %s\n", r.Name, r.Color.Hex())
	}
	return sb.String()
}
