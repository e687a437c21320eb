package printing

import (
	"fmt"
	"sort"
)

// FlagTokens holds the literal arguments of a boolean option.
// An empty token emits nothing.
type FlagTokens struct {
	Enable  string
	Disable string
}

// OptionSpec describes a single render option.
type OptionSpec struct {
	Name      string
	Default   string
	Validator ValueValidator
	// Flag is set for boolean options only.
	Flag *FlagTokens
}

// IsFlag reports whether the option is rendered as an enable/disable token.
func (s OptionSpec) IsFlag() bool {
	return s.Flag != nil
}

// Args returns the argument tokens for value. The value must already be valid.
func (s OptionSpec) Args(value string) []string {
	if s.Flag == nil {
		return []string{"--" + s.Name, value}
	}
	token := s.Flag.Disable
	if IsTruthy(value) {
		token = s.Flag.Enable
	}
	if token == "" {
		return nil
	}
	return []string{token}
}

// OptionSchema is the ordered whitelist of render options.
type OptionSchema struct {
	specs []OptionSpec
	index map[string]int
}

// NewOptionSchema builds a schema from specs, keeping their order.
func NewOptionSchema(specs ...OptionSpec) *OptionSchema {
	s := &OptionSchema{
		specs: make([]OptionSpec, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	copy(s.specs, specs)
	for i, spec := range specs {
		s.index[spec.Name] = i
	}
	return s
}

var marginPattern = MustPattern(`^[0-9]+(mm|cm|px|em)$`)

// DefaultSchema returns the wkhtmltopdf option whitelist.
func DefaultSchema() *OptionSchema {
	flag := func(enable, disable string) *FlagTokens {
		return &FlagTokens{Enable: enable, Disable: disable}
	}
	return NewOptionSchema(
		OptionSpec{Name: "title", Default: "", Validator: AnyString{}},
		OptionSpec{Name: "grayscale", Default: "0", Validator: Boolean{}, Flag: flag("--grayscale", "")},
		OptionSpec{Name: "copies", Default: "1", Validator: Numeric{}},
		OptionSpec{Name: "orientation", Default: "Portrait", Validator: MustPattern(`^(Portrait|Landscape)$`)},
		OptionSpec{Name: "page-size", Default: "A4", Validator: AnyString{}},
		OptionSpec{Name: "margin-bottom", Default: "10mm", Validator: marginPattern},
		OptionSpec{Name: "margin-left", Default: "10mm", Validator: marginPattern},
		OptionSpec{Name: "margin-right", Default: "10mm", Validator: marginPattern},
		OptionSpec{Name: "margin-top", Default: "10mm", Validator: marginPattern},
		OptionSpec{Name: "toc", Default: "0", Validator: Boolean{}, Flag: flag("--toc", "")},
		OptionSpec{Name: "print-media-type", Default: "1", Validator: Boolean{}, Flag: flag("--print-media-type", "--no-print-media-type")},
		OptionSpec{Name: "background", Default: "1", Validator: Boolean{}, Flag: flag("--background", "--no-background")},
		OptionSpec{Name: "images", Default: "1", Validator: Boolean{}, Flag: flag("--images", "--no-images")},
		OptionSpec{Name: "enable-external-links", Default: "1", Validator: Boolean{}, Flag: flag("--enable-external-links", "--disable-external-links")},
		OptionSpec{Name: "enable-local-file-access", Default: "1", Validator: Boolean{}, Flag: flag("--enable-local-file-access", "--disable-local-file-access")},
	)
}

// Specs returns the option specs in declaration order.
func (s *OptionSchema) Specs() []OptionSpec {
	out := make([]OptionSpec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Lookup returns the spec for name.
func (s *OptionSchema) Lookup(name string) (OptionSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return OptionSpec{}, false
	}
	return s.specs[i], true
}

// Defaults returns a fresh map with every option set to its default.
func (s *OptionSchema) Defaults() RenderOptions {
	out := make(RenderOptions, len(s.specs))
	for _, spec := range s.specs {
		out[spec.Name] = spec.Default
	}
	return out
}

// Validate checks every entry of opts against the schema.
// Unknown names are reported before invalid values.
func (s *OptionSchema) Validate(opts RenderOptions) error {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	if err := s.checkNames(names); err != nil {
		return err
	}
	for _, spec := range s.specs {
		value, ok := opts[spec.Name]
		if !ok {
			continue
		}
		if !spec.Validator.Validate(value) {
			return &InvalidOptionValueError{Name: spec.Name, Value: value}
		}
	}
	return nil
}

// Normalize converts loosely typed values, as decoded from JSON, into
// RenderOptions. Booleans become "1" or "0". Like Validate, unknown names
// are reported before values that have no string form.
func (s *OptionSchema) Normalize(raw map[string]any) (RenderOptions, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	if err := s.checkNames(names); err != nil {
		return nil, err
	}
	out := make(RenderOptions, len(raw))
	for _, spec := range s.specs {
		v, ok := raw[spec.Name]
		if !ok {
			continue
		}
		value, err := normalizeValue(v)
		if err != nil {
			return nil, &InvalidOptionValueError{Name: spec.Name, Value: fmt.Sprint(v)}
		}
		out[spec.Name] = value
	}
	return out, nil
}

// checkNames returns an UnknownOptionError for the smallest name outside
// the schema.
func (s *OptionSchema) checkNames(names []string) error {
	var unknown []string
	for _, name := range names {
		if _, ok := s.index[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &UnknownOptionError{Name: unknown[0]}
}

// BuildArgs validates opts and renders them into renderer arguments.
// Options absent from opts are skipped. On error no arguments are returned.
func (s *OptionSchema) BuildArgs(opts RenderOptions) ([]string, error) {
	if err := s.Validate(opts); err != nil {
		return nil, err
	}
	args := make([]string, 0, len(opts)*2)
	for _, spec := range s.specs {
		value, ok := opts[spec.Name]
		if !ok {
			continue
		}
		args = append(args, spec.Args(value)...)
	}
	return args, nil
}
