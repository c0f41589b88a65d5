// Package export assembles outbound representations of the schedule:
// a PDF built from the captured grid image and an iCalendar feed.
package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions describes the page the captured image is placed on.
type PDFOptions struct {
	// Orientation is "P" or "L".
	Orientation string
	// PageSize is a gofpdf size name such as "A4".
	PageSize string
	// MarginMM is the page margin in millimeters.
	MarginMM float64
}

// GridPDF places the captured PNG of the week grid onto a single page,
// scaled to fit inside the margins with its aspect ratio preserved, and
// writes the document to w. The rasterization itself happened upstream
// in the capture; this only does page assembly.
func GridPDF(w io.Writer, png []byte, opts PDFOptions) error {
	if len(png) == 0 {
		return fmt.Errorf("export: empty image")
	}
	if opts.Orientation == "" {
		opts.Orientation = "L"
	}
	if opts.PageSize == "" {
		opts.PageSize = "A4"
	}
	if opts.MarginMM <= 0 {
		opts.MarginMM = 6
	}

	pdf := gofpdf.New(opts.Orientation, "mm", opts.PageSize, "")
	pdf.AddPage()

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader("weekgrid", imgOpts, bytes.NewReader(png))
	if pdf.Err() {
		return fmt.Errorf("export: register image: %w", pdf.Error())
	}

	pageW, pageH := pdf.GetPageSize()
	availW := pageW - 2*opts.MarginMM
	availH := pageH - 2*opts.MarginMM

	// Fit the image inside the printable area.
	drawW := availW
	drawH := drawW * info.Height() / info.Width()
	if drawH > availH {
		drawH = availH
		drawW = drawH * info.Width() / info.Height()
	}
	x := opts.MarginMM + (availW-drawW)/2
	y := opts.MarginMM + (availH-drawH)/2

	pdf.ImageOptions("weekgrid", x, y, drawW, drawH, false, imgOpts, 0, "")
	if pdf.Err() {
		return fmt.Errorf("export: place image: %w", pdf.Error())
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}
