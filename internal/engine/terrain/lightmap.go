package terrain

import (
	"github.com/Faultbox/midgard-terrain/pkg/math"
)

// DefaultLightmapSize is the edge length of a baked lightmap tile in pixels.
const DefaultLightmapSize = 8

// BakeLightmaps shades the normal map with a directional light and cuts the
// result into size x size lightmap tiles, row by row. ambient is the floor
// brightness in [0, 1] applied to surfaces facing away from the light.
func BakeLightmaps(nm *NormalMap, sun math.Vec3, ambient float32, size int) []Lightmap {
	if size <= 0 {
		size = DefaultLightmapSize
	}
	sun = sun.Normalize()
	ambient = clampf(ambient, 0, 1)

	cols := (nm.Width + size - 1) / size
	rows := (nm.Height + size - 1) / size
	lms := make([]Lightmap, 0, cols*rows)

	for ty := range rows {
		for tx := range cols {
			lm := Lightmap{
				Brightness: make([]uint8, size*size),
				ColorRGB:   make([]uint8, size*size*3),
			}
			for y := range size {
				for x := range size {
					n := nm.At(tx*size+x, ty*size+y)
					diffuse := max(n.Dot(sun), 0)
					light := ambient + (1-ambient)*diffuse
					lm.Brightness[y*size+x] = uint8(clampf(light*255+0.5, 0, 255))
				}
			}
			lms = append(lms, lm)
		}
	}
	return lms
}

// BuildLightmapAtlas packs lightmap tiles of lmWidth x lmHeight pixels into a
// square power-of-two atlas ready for GPU upload.
func BuildLightmapAtlas(lightmaps []Lightmap, lmWidth, lmHeight int) *LightmapAtlas {
	if len(lightmaps) == 0 {
		return &LightmapAtlas{
			Data:        createWhiteLightmap(8),
			Size:        8,
			TilesPerRow: 1,
			TileWidth:   8,
			TileHeight:  8,
		}
	}
	if lmWidth <= 0 {
		lmWidth = DefaultLightmapSize
	}
	if lmHeight <= 0 {
		lmHeight = DefaultLightmapSize
	}

	tilesPerRow := 1
	for tilesPerRow*tilesPerRow < len(lightmaps) {
		tilesPerRow *= 2
	}

	atlasSize := tilesPerRow * max(lmWidth, lmHeight)
	pow2 := 64
	for pow2 < atlasSize {
		pow2 *= 2
	}
	atlasSize = min(pow2, 4096)

	tilesPerRowFinal := int32(atlasSize / lmWidth)

	// RGB is the color tint, A the shadow intensity.
	atlasData := createWhiteLightmap(atlasSize)

	for i, lm := range lightmaps {
		tileX := i % int(tilesPerRowFinal)
		tileY := i / int(tilesPerRowFinal)
		baseX := tileX * lmWidth
		baseY := tileY * lmHeight

		for y := range lmHeight {
			for x := range lmWidth {
				srcIdx := y*lmWidth + x
				dstX := baseX + x
				dstY := baseY + y
				if dstX >= atlasSize || dstY >= atlasSize {
					continue
				}
				dstIdx := (dstY*atlasSize + dstX) * 4

				var brightness uint8 = 255
				if srcIdx < len(lm.Brightness) {
					brightness = lm.Brightness[srcIdx]
				}
				var r, g, b uint8
				if srcIdx*3+2 < len(lm.ColorRGB) {
					r = lm.ColorRGB[srcIdx*3]
					g = lm.ColorRGB[srcIdx*3+1]
					b = lm.ColorRGB[srcIdx*3+2]
				}

				atlasData[dstIdx] = r
				atlasData[dstIdx+1] = g
				atlasData[dstIdx+2] = b
				atlasData[dstIdx+3] = brightness
			}
		}
	}

	return &LightmapAtlas{
		Data:        atlasData,
		Size:        int32(atlasSize),
		TilesPerRow: tilesPerRowFinal,
		TileWidth:   lmWidth,
		TileHeight:  lmHeight,
	}
}

// CalculateLightmapUV returns UV coordinates for a lightmap in the atlas.
// cornerIdx: 0=BL, 1=BR, 2=TL, 3=TR
//
// Uses half-pixel insets to center UV sampling and avoid boundary bleeding.
func CalculateLightmapUV(atlas *LightmapAtlas, lightmapID int, cornerIdx int) [2]float32 {
	if atlas == nil || lightmapID < 0 || atlas.TilesPerRow == 0 {
		return [2]float32{0.5, 0.5}
	}

	tileX := lightmapID % int(atlas.TilesPerRow)
	tileY := lightmapID / int(atlas.TilesPerRow)

	atlasSize := float32(atlas.Size)
	tileW := float32(atlas.TileWidth) / atlasSize
	tileH := float32(atlas.TileHeight) / atlasSize
	baseU := float32(tileX*atlas.TileWidth) / atlasSize
	baseV := float32(tileY*atlas.TileHeight) / atlasSize

	halfPixel := 0.5 / atlasSize
	innerU1 := baseU + halfPixel
	innerU2 := baseU + tileW - halfPixel
	innerV1 := baseV + halfPixel
	innerV2 := baseV + tileH - halfPixel

	switch cornerIdx {
	case 0:
		return [2]float32{innerU1, innerV2}
	case 1:
		return [2]float32{innerU2, innerV2}
	case 2:
		return [2]float32{innerU1, innerV1}
	case 3:
		return [2]float32{innerU2, innerV1}
	}
	return [2]float32{0.5, 0.5}
}

func createWhiteLightmap(size int) []byte {
	data := make([]byte, size*size*4)
	for i := range data {
		data[i] = 255
	}
	return data
}
