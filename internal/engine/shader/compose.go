// Package shader composes the sampler declarations terrain effects need into
// GLSL sources. Compilation on a live context lives in shader/program.
package shader

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrSamplerConflict reports two samplers sharing a name or a texture unit.
var ErrSamplerConflict = errors.New("sampler conflict")

// Sampler binds a GLSL sampler uniform to a reserved texture unit.
type Sampler struct {
	Name string
	Unit int
	Type string // GLSL type, sampler2D when empty
}

func (s Sampler) glslType() string {
	if s.Type == "" {
		return "sampler2D"
	}
	return s.Type
}

// Header returns the declarations for samplers ordered by unit. Each sampler
// also gets a HAS_<NAME> define so shared sources can test for it.
func Header(samplers []Sampler) (string, error) {
	sorted := slices.Clone(samplers)
	slices.SortFunc(sorted, func(a, b Sampler) int { return a.Unit - b.Unit })

	names := make(map[string]bool, len(sorted))
	var sb strings.Builder
	for i, s := range sorted {
		if !validIdent(s.Name) {
			return "", fmt.Errorf("sampler %q: invalid name", s.Name)
		}
		if s.Unit < 0 {
			return "", fmt.Errorf("sampler %q: negative unit %d", s.Name, s.Unit)
		}
		if names[s.Name] {
			return "", fmt.Errorf("%w: name %q declared twice", ErrSamplerConflict, s.Name)
		}
		if i > 0 && sorted[i-1].Unit == s.Unit {
			return "", fmt.Errorf("%w: %q and %q both on unit %d", ErrSamplerConflict, sorted[i-1].Name, s.Name, s.Unit)
		}
		names[s.Name] = true
		fmt.Fprintf(&sb, "#define HAS_%s 1\n", strings.ToUpper(s.Name))
		fmt.Fprintf(&sb, "uniform %s %s; // unit %d\n", s.glslType(), s.Name, s.Unit)
	}
	return sb.String(), nil
}

// Compose inserts the sampler header into src, after the #version line when
// there is one.
func Compose(src string, samplers []Sampler) (string, error) {
	header, err := Header(samplers)
	if err != nil {
		return "", err
	}
	if header == "" {
		return src, nil
	}
	if strings.HasPrefix(strings.TrimSpace(src), "#version") {
		trimmed := strings.TrimLeft(src, " \t\r\n")
		if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
			return trimmed[:nl+1] + header + trimmed[nl+1:], nil
		}
		return trimmed + "\n" + header, nil
	}
	return header + src, nil
}

func validIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
