package hardware

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Panel geometry of the SSD1306 module.
const (
	PanelWidth  = 128
	PanelHeight = 64
	pageHeight  = 8
)

// Canvas is a monochrome frame buffer addressed by 8-pixel pages. A 13px
// line occupies two pages, so status rows use even page numbers.
type Canvas struct {
	img *image.Gray
}

func NewCanvas() *Canvas {
	return &Canvas{img: image.NewGray(image.Rect(0, 0, PanelWidth, PanelHeight))}
}

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Black, image.Point{}, draw.Src)
}

// WriteLine draws text starting at page row. Rows outside the panel are ignored.
func (c *Canvas) WriteLine(row int, text string) {
	if row < 0 || row*pageHeight >= PanelHeight {
		return
	}
	top := row * pageHeight
	face := basicfont.Face7x13
	draw.Draw(c.img, image.Rect(0, top, PanelWidth, min(top+face.Height, PanelHeight)), image.Black, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(0, top+face.Ascent),
	}
	d.DrawString(text)
}

// Image is the current frame.
func (c *Canvas) Image() image.Image { return c.img }

// lit reports whether any pixel in the page band [row, row+2) is on.
func (c *Canvas) lit(row int) bool {
	top := row * pageHeight
	for y := top; y < top+2*pageHeight && y < PanelHeight; y++ {
		for x := 0; x < PanelWidth; x++ {
			if c.img.GrayAt(x, y).Y > 0 {
				return true
			}
		}
	}
	return false
}
