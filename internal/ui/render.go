package ui

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/dudu/eyetrainer/internal/exercise/beads"
	"github.com/dudu/eyetrainer/internal/exercise/path"
	"github.com/dudu/eyetrainer/internal/routing"
)

var (
	colorBlack     = color.RGBA{A: 255}
	colorGray      = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorRed       = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	colorDone      = color.RGBA{R: 170, G: 220, B: 170, A: 255}
	colorString    = color.RGBA{R: 139, G: 69, B: 19, A: 255}
	colorTarget    = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	colorDisclaim  = color.RGBA{R: 180, G: 90, B: 0, A: 255}
	colorCanvasBox = color.RGBA{R: 210, G: 210, B: 210, A: 255}
)

const (
	font        = gocv.FontHersheySimplex
	targetSize  = 20
	labelOffset = 30
)

// DrawBeads draws the bead string with its origin at off
func DrawBeads(dst *gocv.Mat, s *beads.Session, off image.Point) {
	n := s.Beads()
	if n == 0 {
		return
	}
	first, last := s.Center(0).Add(off), s.Center(n-1).Add(off)
	r := s.Box(0).Dx() / 2
	if s.Arrangement() == routing.Vertical {
		first.Y -= r
		last.Y += r
	} else {
		first.X -= r
		last.X += r
	}
	gocv.Line(dst, first, last, colorString, 4)

	for i := 0; i < n; i++ {
		c := s.Center(i).Add(off)
		fill := colorGray
		switch {
		case i == s.Target():
			fill = colorRed
		case s.Satisfied(i):
			fill = colorDone
		}
		gocv.Circle(dst, c, r, fill, -1)
		gocv.Circle(dst, c, r, colorBlack, 2)

		label := fmt.Sprintf("Bead %d", i+1)
		at := image.Pt(c.X, c.Y+labelOffset+4)
		if s.Arrangement() == routing.Vertical {
			at = image.Pt(c.X+r+labelOffset+textWidth(label, 0.45)/2, c.Y+4)
		}
		putCentered(dst, label, at, 0.45, colorBlack)
	}

	status := fmt.Sprintf("Round %d/%d", min(s.Round(), s.Rounds()), s.Rounds())
	if s.Done() {
		status = fmt.Sprintf("All %d rounds done", s.Rounds())
	}
	gocv.PutText(dst, status, off.Add(image.Pt(8, 20)), font, 0.5, colorBlack, 1)
}

// DrawPath draws the moving target and the pattern name with origin at off
func DrawPath(dst *gocv.Mat, g *path.Generator, off image.Point) {
	geo := g.Geometry()
	putCentered(dst, "Pattern: "+g.Pattern().String(), off.Add(image.Pt(geo.Width/2, 20)), 0.55, colorBlack)

	p := g.Position()
	c := off.Add(image.Pt(int(p.X+0.5), int(p.Y+0.5)))
	gocv.Circle(dst, c, targetSize, colorTarget, -1)
	gocv.Circle(dst, c, targetSize, colorBlack, 2)
}

// DrawCanvasFrame outlines an exercise canvas
func DrawCanvasFrame(dst *gocv.Mat, r image.Rectangle) {
	gocv.Rectangle(dst, r, colorCanvasBox, 1)
}

func putCentered(dst *gocv.Mat, text string, center image.Point, scale float64, c color.RGBA) {
	w := textWidth(text, scale)
	gocv.PutText(dst, text, image.Pt(center.X-w/2, center.Y), font, scale, c, 1)
}

func textWidth(text string, scale float64) int {
	return gocv.GetTextSize(text, font, scale, 1).X
}
