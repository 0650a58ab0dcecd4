package report

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/scenescan/pkg/imageio"
)

// Fixed table geometry. Column widths add up to tableWidth.
const (
	tableWidth = 1200
	cellPadX   = 12
	cellPadY   = 10
	lineHeight = 16
)

var (
	columnHeaders = []string{"Description", "Probability", "Texts", "Summary"}
	columnWidths  = []int{220, 120, 430, 430}

	tableBorder = color.NRGBA{60, 60, 60, 255}
	headerText  = color.NRGBA{20, 20, 20, 255}
	cellText    = color.NRGBA{40, 40, 40, 255}
)

// renderTable draws a two-row table (header plus one value row) as an
// image. Cell text wraps to its column width.
func renderTable(values []string) image.Image {
	wrapped := make([][]string, len(values))
	rowLines := 1
	for i, v := range values {
		wrapped[i] = wrapText(v, columnWidths[i]-2*cellPadX)
		if len(wrapped[i]) > rowLines {
			rowLines = len(wrapped[i])
		}
	}

	headerHeight := lineHeight + 2*cellPadY
	rowHeight := rowLines*lineHeight + 2*cellPadY
	height := headerHeight + rowHeight

	canvas := imaging.New(tableWidth, height, color.NRGBA{255, 255, 255, 255})

	// Cell borders.
	fillRect(canvas, 0, 0, tableWidth, 1, tableBorder)
	fillRect(canvas, 0, headerHeight, tableWidth, 1, tableBorder)
	fillRect(canvas, 0, height-1, tableWidth, 1, tableBorder)
	x := 0
	for _, w := range columnWidths {
		fillRect(canvas, x, 0, 1, height, tableBorder)
		x += w
	}
	fillRect(canvas, tableWidth-1, 0, 1, height, tableBorder)

	// Header row.
	x = 0
	for i, header := range columnHeaders {
		imageio.DrawLabel(canvas, header, x+cellPadX, cellPadY, headerText)
		x += columnWidths[i]
	}

	// Value row.
	x = 0
	for i, lines := range wrapped {
		for j, line := range lines {
			imageio.DrawLabel(canvas, line, x+cellPadX, headerHeight+cellPadY+j*lineHeight, cellText)
		}
		x += columnWidths[i]
	}

	return canvas
}

// wrapText splits text into lines no wider than maxWidth pixels in the
// table's bitmap face. Overlong single words are hard-cut.
func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if imageio.LabelWidth(candidate) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		for imageio.LabelWidth(word) > maxWidth && len(word) > 1 {
			cut := len(word) - 1
			for cut > 1 && imageio.LabelWidth(word[:cut]) > maxWidth {
				cut--
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func fillRect(img *image.NRGBA, x, y, w, h int, c color.NRGBA) {
	for dy := 0; dy < h; dy++ {
		py := y + dy
		if py < 0 || py >= img.Bounds().Dy() {
			continue
		}
		i := py*img.Stride + x*4
		for dx := 0; dx < w; dx++ {
			px := x + dx
			if px < 0 || px >= img.Bounds().Dx() {
				continue
			}
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
			i += 4
		}
	}
}
