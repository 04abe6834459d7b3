package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 16

var (
	colorOn  = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	colorOff = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// iconPNG draws the tray icon: a ring with a dot, blue when hover is on.
func iconPNG(enabled bool) []byte {
	c := colorOff
	if enabled {
		c = colorOn
	}
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	center := float64(iconSize-1) / 2
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			d := dx*dx + dy*dy
			if (d >= 30 && d <= 56) || d <= 5 {
				img.Set(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// icoFromPNG wraps a PNG into a single-image .ico container, which systray
// requires on Windows.
func icoFromPNG(p []byte) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1}) // reserved, type=icon, count
	buf.Write([]byte{iconSize, iconSize, 0, 0})    // width, height, palette, reserved
	_ = binary.Write(&buf, le, [2]uint16{1, 32})   // planes, bpp
	_ = binary.Write(&buf, le, [2]uint32{uint32(len(p)), 22})
	buf.Write(p)
	return buf.Bytes()
}

func iconBytes(enabled bool) []byte {
	p := iconPNG(enabled)
	if runtime.GOOS == "windows" {
		return icoFromPNG(p)
	}
	return p
}
