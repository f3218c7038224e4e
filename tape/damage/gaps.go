// Package damage reports contiguous ranges of unread physical blocks and
// renders a diagnostic PNG of the tape's recovered/missing/parking coverage.
//
// The spec treats the PNG renderer itself as an external collaborator (out
// of scope in detail); this package defines the data it would consume
// (gap ranges, per-track coverage) and provides a small stdlib-backed
// renderer so the CLI has something concrete to write.
package damage

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"osrecover/tape"
	"osrecover/tape/scan"
)

// Gap is a contiguous run of logical positions that no dump file attributed.
type Gap struct {
	FromLogical, ToLogical int // [FromLogical, ToLogical)
}

// FindGaps walks the cartridge's full logical ordering and reports every
// contiguous run of physical blocks absent from the block map.
func FindGaps(c tape.Cartridge, blocks map[tape.Position]scan.Locator) []Gap {
	var gaps []Gap
	max := c.MaxLogical()

	inGap := false
	var start int

	for l := 0; l < max; l++ {
		p, err := c.LogicalToPhysical(l)
		present := err == nil
		if present {
			_, present = blocks[p]
		}

		if !present {
			if !inGap {
				inGap = true
				start = l
			}
			continue
		}

		if inGap {
			gaps = append(gaps, Gap{FromLogical: start, ToLogical: l})
			inGap = false
		}
	}
	if inGap {
		gaps = append(gaps, Gap{FromLogical: start, ToLogical: max})
	}

	return gaps
}

// status colour-codes a block for the damage image.
type status uint8

const (
	statusRecovered status = iota
	statusGap
	statusParking
	statusBad
)

var palette = []color.Color{
	statusRecovered: color.RGBA{0x2e, 0xa0, 0x4a, 0xff}, // green
	statusGap:       color.RGBA{0xd6, 0x2c, 0x2c, 0xff}, // red
	statusParking:   color.RGBA{0x5a, 0x5a, 0x5a, 0xff}, // grey
	statusBad:       color.RGBA{0xe0, 0x9f, 0x1f, 0xff}, // amber
}

// Render writes a PNG visualisation of tape coverage to w: one row per
// track, one column per frame, coloured by recovered/gap/parking/known-bad
// status.
func Render(w io.Writer, c tape.Cartridge, blocks map[tape.Position]scan.Locator, knownBad map[tape.Position]struct{}) error {
	img := image.NewPaletted(image.Rect(0, 0, c.FramesPerTrack, c.Tracks), toColorPalette())

	for track := 0; track < c.Tracks; track++ {
		for x := 0; x < c.FramesPerTrack; x++ {
			p := tape.Position{Track: track, X: x}

			var st status
			switch {
			case knownBad != nil && isKnownBad(knownBad, p):
				st = statusBad
			case c.Classify(p) == tape.Parking:
				st = statusParking
			default:
				if _, ok := blocks[p]; ok {
					st = statusRecovered
				} else {
					st = statusGap
				}
			}

			img.SetColorIndex(x, track, uint8(st))
		}
	}

	return png.Encode(w, img)
}

func isKnownBad(knownBad map[tape.Position]struct{}, p tape.Position) bool {
	_, ok := knownBad[p]
	return ok
}

func toColorPalette() color.Palette {
	return color.Palette(palette)
}
