package seed

import (
	_ "embed"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets/presets.yml
var builtinPresets []byte

// Preset is a named population profile.
type Preset struct {
	Members         int     `yaml:"members"`
	Circles         int     `yaml:"circles"`
	PostsPerCircle  int     `yaml:"posts_per_circle"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	MaxDepth        int     `yaml:"max_depth"`
	LikeRatio       float64 `yaml:"like_ratio"`
	MaxDays         int     `yaml:"max_days"`
}

// Options converts the preset into seeder options.
func (p Preset) Options() Options {
	return Options{
		NumMembers:      p.Members,
		NumCircles:      p.Circles,
		PostsPerCircle:  p.PostsPerCircle,
		CommentsPerPost: p.CommentsPerPost,
		MaxDepth:        p.MaxDepth,
		LikeRatio:       p.LikeRatio,
		MaxDays:         p.MaxDays,
	}
}

func (p Preset) validate() error {
	switch {
	case p.Members < 1:
		return fmt.Errorf("members must be at least 1")
	case p.Circles < 0, p.PostsPerCircle < 0, p.CommentsPerPost < 0, p.MaxDays < 0:
		return fmt.Errorf("counts must not be negative")
	case p.LikeRatio < 0 || p.LikeRatio > 1:
		return fmt.Errorf("like_ratio must be between 0 and 1")
	}
	return nil
}

// Presets maps preset names to profiles.
type Presets map[string]Preset

// Names returns the preset names in sorted order.
func (ps Presets) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named preset.
func (ps Presets) Lookup(name string) (Preset, error) {
	p, ok := ps[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, ps.Names())
	}
	return p, nil
}

// LoadPresets decodes a presets document and validates every entry.
func LoadPresets(r io.Reader) (Presets, error) {
	var doc struct {
		Presets Presets `yaml:"presets"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for name, p := range doc.Presets {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return doc.Presets, nil
}

// BuiltinPresets returns the presets shipped with the binary.
func BuiltinPresets() Presets {
	var doc struct {
		Presets Presets `yaml:"presets"`
	}
	if err := yaml.Unmarshal(builtinPresets, &doc); err != nil {
		panic(fmt.Sprintf("seed: embedded presets are invalid: %v", err))
	}
	return doc.Presets
}
