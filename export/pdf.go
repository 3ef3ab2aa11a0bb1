// Package export turns finalized page rasters into portable artifacts: a
// one-image-per-page PDF for print sinks and share targets, and a
// passphrase-protected archive for exports that leave the device.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

const jpegQuality = 90

// WritePDF writes pages as a PDF, one full-bleed image per page. Page media
// boxes are sized to the raster dimensions at one point per pixel, so baked
// rotations carry through as-is.
func WritePDF(w io.Writer, pages []image.Image) error {
	if len(pages) == 0 {
		return fmt.Errorf("export: no pages")
	}

	cw := &countingWriter{w: w}
	if _, err := fmt.Fprintf(cw, "%%PDF-1.4\n%%\xe2\xe3\xcf\xd3\n"); err != nil {
		return err
	}

	// Objects: 1 catalog, 2 page tree, then (page, contents, image) per page.
	objCount := 2 + 3*len(pages)
	offsets := make([]int64, objCount+1)

	writeObj := func(num int, body func() error) error {
		offsets[num] = cw.n
		if _, err := fmt.Fprintf(cw, "%d 0 obj\n", num); err != nil {
			return err
		}
		if err := body(); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cw, "endobj\n")
		return err
	}

	if err := writeObj(1, func() error {
		_, err := fmt.Fprintf(cw, "<< /Type /Catalog /Pages 2 0 R >>\n")
		return err
	}); err != nil {
		return err
	}

	if err := writeObj(2, func() error {
		if _, err := fmt.Fprintf(cw, "<< /Type /Pages /Count %d /Kids [", len(pages)); err != nil {
			return err
		}
		for i := range pages {
			if _, err := fmt.Fprintf(cw, " %d 0 R", 3+3*i); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(cw, " ] >>\n")
		return err
	}); err != nil {
		return err
	}

	for i, page := range pages {
		pageObj, contentObj, imageObj := 3+3*i, 4+3*i, 5+3*i
		b := page.Bounds()
		w0, h0 := b.Dx(), b.Dy()

		if err := writeObj(pageObj, func() error {
			_, err := fmt.Fprintf(cw,
				"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /XObject << /Im0 %d 0 R >> >> >>\n",
				w0, h0, contentObj, imageObj)
			return err
		}); err != nil {
			return err
		}

		content := fmt.Sprintf("q %d 0 0 %d 0 0 cm /Im0 Do Q", w0, h0)
		if err := writeObj(contentObj, func() error {
			_, err := fmt.Fprintf(cw, "<< /Length %d >>\nstream\n%s\nendstream\n", len(content), content)
			return err
		}); err != nil {
			return err
		}

		var jpg bytes.Buffer
		if err := jpeg.Encode(&jpg, page, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("export: encode page %d: %w", i, err)
		}
		if err := writeObj(imageObj, func() error {
			if _, err := fmt.Fprintf(cw,
				"<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n",
				w0, h0, jpg.Len()); err != nil {
				return err
			}
			if _, err := cw.Write(jpg.Bytes()); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cw, "\nendstream\n")
			return err
		}); err != nil {
			return err
		}
	}

	xrefOffset := cw.n
	if _, err := fmt.Fprintf(cw, "xref\n0 %d\n0000000000 65535 f \n", objCount+1); err != nil {
		return err
	}
	for num := 1; num <= objCount; num++ {
		if _, err := fmt.Fprintf(cw, "%010d 00000 n \n", offsets[num]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(cw, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		objCount+1, xrefOffset)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
