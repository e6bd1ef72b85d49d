package geomap

import (
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Manifest selects the layers a tile model should include. The empty
// manifest selects every layer.
type Manifest struct {
	uids *roaring.Bitmap
}

// NewManifest returns a manifest selecting exactly the given layers.
func NewManifest(uids ...UID) Manifest {
	bm := roaring.New()
	for _, uid := range uids {
		bm.Add(uint32(uid))
	}
	return Manifest{uids: bm}
}

// Empty reports whether the manifest selects all layers.
func (m Manifest) Empty() bool {
	return m.uids == nil || m.uids.IsEmpty()
}

// Includes reports whether the layer is selected.
func (m Manifest) Includes(uid UID) bool {
	return m.Empty() || m.uids.Contains(uint32(uid))
}

// UIDs returns the selected UIDs in ascending order, nil for the empty manifest.
func (m Manifest) UIDs() []UID {
	if m.Empty() {
		return nil
	}
	out := make([]UID, 0, m.uids.GetCardinality())
	it := m.uids.Iterator()
	for it.HasNext() {
		out = append(out, UID(it.Next()))
	}
	return out
}

// Fingerprint returns a stable string identifying the selection, suitable as a cache key part.
func (m Manifest) Fingerprint() string {
	if m.Empty() {
		return "*"
	}
	var sb strings.Builder
	for i, uid := range m.UIDs() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(uid), 10))
	}
	return sb.String()
}
