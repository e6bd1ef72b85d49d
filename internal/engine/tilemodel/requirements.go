package tilemodel

import "strings"

// Requirements are the auxiliary channels installed effects need in every
// tile, whatever the manifest asks for.
type Requirements struct {
	NormalTextures     bool
	ElevationTextures  bool
	LandCoverTextures  bool
	ParentTextures     bool
	ElevationBorder    bool
	FullDataAtFirstLOD bool
}

// Merge returns the union of two requirement sets.
func (r Requirements) Merge(o Requirements) Requirements {
	return Requirements{
		NormalTextures:     r.NormalTextures || o.NormalTextures,
		ElevationTextures:  r.ElevationTextures || o.ElevationTextures,
		LandCoverTextures:  r.LandCoverTextures || o.LandCoverTextures,
		ParentTextures:     r.ParentTextures || o.ParentTextures,
		ElevationBorder:    r.ElevationBorder || o.ElevationBorder,
		FullDataAtFirstLOD: r.FullDataAtFirstLOD || o.FullDataAtFirstLOD,
	}
}

// NeedsElevation reports whether elevation must be sampled regardless of the manifest.
func (r Requirements) NeedsElevation() bool {
	return r.NormalTextures || r.ElevationTextures
}

// String lists the set flags, e.g. "normals,parents".
func (r Requirements) String() string {
	var parts []string
	add := func(on bool, name string) {
		if on {
			parts = append(parts, name)
		}
	}
	add(r.NormalTextures, "normals")
	add(r.ElevationTextures, "elevation")
	add(r.LandCoverTextures, "landcover")
	add(r.ParentTextures, "parents")
	add(r.ElevationBorder, "border")
	add(r.FullDataAtFirstLOD, "firstlod")
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
