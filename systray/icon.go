package systray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

var (
	iconPaper = color.RGBA{0xf5, 0xf0, 0xe1, 0xff}
	iconBoard = color.RGBA{0xc8, 0x9b, 0x3c, 0xff}
	iconLine  = color.RGBA{0x5a, 0x5a, 0x5a, 0xff}
)

// Icon returns the tray icon in the format the platform expects: ICO on
// Windows, PNG elsewhere
func Icon() []byte {
	data, err := iconPNG()
	if err != nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize)
	}
	return data
}

// iconPNG draws a clipboard: a board, a sheet of paper and a few text lines
func iconPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))

	fill := func(x0, y0, x1, y1 int, c color.RGBA) {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}

	fill(5, 3, 27, 31, iconBoard)
	fill(8, 7, 24, 28, iconPaper)
	fill(12, 1, 20, 6, iconLine)
	for y := 11; y < 26; y += 4 {
		fill(10, y, 22, y+2, iconLine)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO embeds a PNG image in a single-entry ICO container
func wrapICO(pngData []byte, size int) []byte {
	const headerLen = 6 + 16

	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR
	binary.Write(&buf, le, uint16(0)) // reserved
	binary.Write(&buf, le, uint16(1)) // type: icon
	binary.Write(&buf, le, uint16(1)) // count

	// ICONDIRENTRY
	buf.WriteByte(byte(size))
	buf.WriteByte(byte(size))
	buf.WriteByte(0) // palette
	buf.WriteByte(0) // reserved
	binary.Write(&buf, le, uint16(1))  // planes
	binary.Write(&buf, le, uint16(32)) // bits per pixel
	binary.Write(&buf, le, uint32(len(pngData)))
	binary.Write(&buf, le, uint32(headerLen))

	buf.Write(pngData)
	return buf.Bytes()
}
