// collage composes page images from a directory into an N-up PDF.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wudi/printkit/document"
	"github.com/wudi/printkit/export"
)

func main() {
	cols := flag.Int("cols", document.DefaultCollageColumns, "collage columns")
	rows := flag.Int("rows", document.DefaultCollageRows, "collage rows")
	out := flag.String("o", "collage.pdf", "output PDF path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: collage [-cols N] [-rows N] [-o out.pdf] <image-dir>")
		os.Exit(1)
	}

	images, err := loadImages(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(images) == 0 {
		fmt.Fprintln(os.Stderr, "no images found")
		os.Exit(1)
	}

	doc := document.Collage(document.FromImages(images...), *cols, *rows)

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := export.WritePDF(f, document.Finalize(doc)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%d page(s) -> %s\n", doc.PageCount(), *out)
}

func loadImages(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]image.Image, 0, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		out = append(out, img)
	}
	return out, nil
}
