package extract

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"
)

// nativeText extracts the text layer of every page, pages joined by newlines.
func nativeText(data []byte) (string, error) {
	reader, err := pdf.NewReader(newBytesReaderAt(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages fail to parse; the short-text rule decides
			// whether what remains is enough.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ocrText renders the first maxPages pages to images and runs Tesseract over
// each, recognized fragments joined by spaces, pages by newlines.
func ocrText(data []byte, maxPages int) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open pdf for ocr: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage("por"); err != nil {
		return "", fmt.Errorf("set ocr language: %w", err)
	}

	pages := doc.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for i := 0; i < pages; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return "", fmt.Errorf("render page %d: %w", i, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("encode page %d: %w", i, err)
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return "", fmt.Errorf("load page %d into ocr: %w", i, err)
		}

		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("recognize page %d: %w", i, err)
		}
		b.WriteString(strings.Join(strings.Fields(text), " "))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// bytesReaderAt implements io.ReaderAt for a byte slice; the pdf reader wants
// a ReaderAt rather than raw bytes.
type bytesReaderAt struct {
	data []byte
}

func newBytesReaderAt(data []byte) *bytesReaderAt {
	return &bytesReaderAt{data: data}
}

func (r *bytesReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
