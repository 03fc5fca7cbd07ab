package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync/atomic"

	"github.com/BourgeoisBear/rasterm"
	"golang.org/x/image/draw"
)

// Row and column diacritics for Kitty Unicode placeholders, see
// https://sw.kovidgoyal.net/kitty/graphics-protocol/#unicode-placeholders
var rowColDiacritics = []rune{
	0x0305, 0x030D, 0x030E, 0x0310, 0x0312, 0x033D, 0x033E, 0x033F,
	0x0346, 0x034A, 0x034B, 0x034C, 0x0350, 0x0351, 0x0352, 0x0357,
	0x035B, 0x0363, 0x0364, 0x0365, 0x0366, 0x0367, 0x0368, 0x0369,
	0x036A, 0x036B, 0x036C, 0x036D, 0x036E, 0x036F, 0x0483, 0x0484,
	0x0485, 0x0486, 0x0487, 0x0592, 0x0593, 0x0594, 0x0595, 0x0597,
	0x0598, 0x0599, 0x059C, 0x059D, 0x059E, 0x059F, 0x05A0, 0x05A1,
	0x05A8, 0x05A9, 0x05AB, 0x05AC, 0x05AF, 0x05C4, 0x0610, 0x0611,
	0x0612, 0x0613, 0x0614, 0x0615, 0x0616, 0x0617, 0x0657, 0x0658,
	0x0659, 0x065A, 0x065B, 0x065D, 0x065E, 0x06D6, 0x06D7, 0x06D8,
	0x06D9, 0x06DA, 0x06DB, 0x06DC, 0x06DF, 0x06E0, 0x06E1, 0x06E2,
	0x06E4, 0x06E7, 0x06E8, 0x06EB, 0x06EC, 0x0730, 0x0732, 0x0733,
	0x0735, 0x0736, 0x073A, 0x073D, 0x073F, 0x0740, 0x0741, 0x0743,
	0x0745, 0x0747, 0x0749, 0x074A, 0x07EB, 0x07EC, 0x07ED, 0x07EE,
	0x07EF, 0x07F0, 0x07F1, 0x07F3, 0x0816, 0x0817, 0x0818, 0x0819,
	0x081B, 0x081C, 0x081D, 0x081E, 0x081F, 0x0820, 0x0821, 0x0822,
	0x0823, 0x0825, 0x0826, 0x0827, 0x0829, 0x082A, 0x082B, 0x082C,
	0x082D, 0x0951, 0x0953, 0x0954, 0x0F82, 0x0F83, 0x0F86, 0x0F87,
	0x135D, 0x135E, 0x135F, 0x17DD, 0x193A, 0x1A17, 0x1A75, 0x1A76,
	0x1A77, 0x1A78, 0x1A79, 0x1A7A, 0x1A7B, 0x1A7C, 0x1B6B, 0x1B6D,
	0x1B6E, 0x1B6F, 0x1B70, 0x1B71, 0x1B72, 0x1B73, 0x1CD0, 0x1CD1,
	0x1CD2, 0x1CDA, 0x1CDB, 0x1CE0, 0x1DC0, 0x1DC1, 0x1DC3, 0x1DC4,
	0x1DC5, 0x1DC6, 0x1DC7, 0x1DC8, 0x1DC9, 0x1DCB, 0x1DCC, 0x1DD1,
	0x1DD2, 0x1DD3, 0x1DD4, 0x1DD5, 0x1DD6, 0x1DD7, 0x1DD8, 0x1DD9,
	0x1DDA, 0x1DDB, 0x1DDC, 0x1DDD, 0x1DDE, 0x1DDF, 0x1DE0, 0x1DE1,
	0x1DE2, 0x1DE3, 0x1DE4, 0x1DE5, 0x1DE6, 0x1DFE, 0x20D0, 0x20D1,
	0x20D4, 0x20D5, 0x20D6, 0x20D7, 0x20DB, 0x20DC, 0x20E1, 0x20E7,
	0x20E9, 0x20F0, 0x2CEF, 0x2CF0, 0x2CF1, 0x2DE0, 0x2DE1, 0x2DE2,
	0x2DE3, 0x2DE4, 0x2DE5, 0x2DE6, 0x2DE7, 0x2DE8, 0x2DE9, 0x2DEA,
	0x2DEB, 0x2DEC, 0x2DED, 0x2DEE, 0x2DEF, 0x2DF0, 0x2DF1, 0x2DF2,
	0x2DF3, 0x2DF4, 0x2DF5, 0x2DF6, 0x2DF7, 0x2DF8, 0x2DF9, 0x2DFA,
	0x2DFB, 0x2DFC, 0x2DFD, 0x2DFE, 0x2DFF, 0xA66F, 0xA67C, 0xA67D,
	0xA6F0, 0xA6F1, 0xA8E0, 0xA8E1, 0xA8E2, 0xA8E3, 0xA8E4, 0xA8E5,
}

// Approximate pixel size of one terminal cell.
const (
	cellWidth  = 10
	cellHeight = 20
	maxRows    = 40
)

var imageIDCounter uint32

// nextImageID returns an id in the 24-bit range Kitty encodes in the
// placeholder foreground color.
func nextImageID() uint32 {
	id := atomic.AddUint32(&imageIDCounter, 1)
	return (id % 16777215) + 1
}

// Capability is a terminal inline image protocol.
type Capability int

const (
	CapNone Capability = iota
	CapKitty
	CapITerm
	CapSixel
)

func (c Capability) String() string {
	switch c {
	case CapKitty:
		return "kitty"
	case CapITerm:
		return "iterm"
	case CapSixel:
		return "sixel"
	default:
		return "none"
	}
}

// ParseCapability maps a protocol name to a capability. "auto" and ""
// detect it from the environment.
func ParseCapability(s string) (Capability, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return DetectCapability(), nil
	case "none", "off":
		return CapNone, nil
	case "kitty":
		return CapKitty, nil
	case "iterm", "iterm2":
		return CapITerm, nil
	case "sixel":
		return CapSixel, nil
	}
	return CapNone, fmt.Errorf("unknown image protocol %q", s)
}

// DetectCapability inspects terminal environment variables. Kitty is
// preferred, then iTerm, then Sixel.
func DetectCapability() Capability {
	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")
	switch {
	case os.Getenv("KITTY_WINDOW_ID") != "", strings.Contains(term, "kitty"), termProgram == "ghostty":
		return CapKitty
	case termProgram == "iTerm.app", termProgram == "WezTerm", os.Getenv("LC_TERMINAL") == "iTerm2":
		return CapITerm
	case strings.Contains(term, "sixel"), strings.Contains(term, "mlterm"):
		return CapSixel
	}
	return CapNone
}

// CellSize returns how many terminal columns and rows img occupies, with
// at most maxCols columns.
func CellSize(img goimage.Image, maxCols int) (cols, rows int) {
	b := img.Bounds()
	cols = max(1, (b.Dx()+cellWidth-1)/cellWidth)
	rows = max(1, (b.Dy()+cellHeight-1)/cellHeight)
	if maxCols > 0 && cols > maxCols {
		rows = max(1, rows*maxCols/cols)
		cols = maxCols
	}
	return cols, min(rows, maxRows)
}

// Encode returns a string that displays img inline when written as part of
// a frame. Kitty images use Unicode placeholders so they survive redraws of
// a full-screen program. CapNone yields "".
func Encode(img goimage.Image, c Capability, maxCols int) (string, error) {
	var buf bytes.Buffer
	switch c {
	case CapKitty:
		if err := writeKittyPlaceholders(&buf, img, maxCols); err != nil {
			return "", err
		}
	case CapITerm:
		if err := rasterm.ItermWriteImage(&buf, img); err != nil {
			return "", err
		}
	case CapSixel:
		if err := rasterm.SixelWriteImage(&buf, toPaletted(img)); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// writeKittyPlaceholders transmits img with U=1 and then writes the
// placeholder grid, with the image id encoded in the foreground color.
func writeKittyPlaceholders(w *bytes.Buffer, img goimage.Image, maxCols int) error {
	id := nextImageID()

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	data := base64.StdEncoding.EncodeToString(pngBuf.Bytes())
	cols, rows := CellSize(img, min(maxCols, len(rowColDiacritics)))

	const chunkSize = 4096
	for i := 0; i < len(data); i += chunkSize {
		end := min(i+chunkSize, len(data))
		more := 0
		if end < len(data) {
			more = 1
		}
		if i == 0 {
			fmt.Fprintf(w, "\x1b_Ga=T,U=1,f=100,t=d,i=%d,c=%d,r=%d,q=2,m=%d;%s\x1b\\",
				id, cols, rows, more, data[i:end])
		} else {
			fmt.Fprintf(w, "\x1b_Gm=%d;%s\x1b\\", more, data[i:end])
		}
	}

	fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm", (id>>16)&0xFF, (id>>8)&0xFF, id&0xFF)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			w.WriteRune(0x10EEEE)
			w.WriteRune(rowColDiacritics[row])
			w.WriteRune(rowColDiacritics[col])
		}
		if row < rows-1 {
			w.WriteByte('\n')
		}
	}
	w.WriteString("\x1b[39m")
	return nil
}

// scaleToWidth scales img down to maxWidth keeping its aspect ratio.
func scaleToWidth(img goimage.Image, maxWidth int) goimage.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := goimage.NewRGBA(goimage.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// sixelPalette is a 6x6x6 color cube followed by 40 grays.
var sixelPalette = func() color.Palette {
	p := make(color.Palette, 0, 256)
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p = append(p, color.RGBA{R: uint8(r * 51), G: uint8(g * 51), B: uint8(b * 51), A: 255})
			}
		}
	}
	for i := 0; i < 40; i++ {
		v := uint8(i * 255 / 39)
		p = append(p, color.RGBA{R: v, G: v, B: v, A: 255})
	}
	return p
}()

func toPaletted(img goimage.Image) *goimage.Paletted {
	b := img.Bounds()
	p := goimage.NewPaletted(b, sixelPalette)
	draw.FloydSteinberg.Draw(p, b, img, b.Min)
	return p
}
