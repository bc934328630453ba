package extract

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MediaJPEG = "image/jpeg"
	MediaPNG  = "image/png"
	MediaPDF  = "application/pdf"
)

// ErrEmptyDocument is returned when there are no bytes to inspect.
var ErrEmptyDocument = errors.New("empty document")

// Summary describes what could be read from an uploaded PDF.
type Summary struct {
	Pages     int
	TextChars int
}

// NormalizeMediaType lowercases a declared media type, strips parameters and
// folds the image/jpg alias into image/jpeg.
func NormalizeMediaType(mediaType string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	if clean == "image/jpg" {
		return MediaJPEG
	}
	return clean
}

// Sniff returns the media type implied by the first bytes of a file.
func Sniff(r io.ReaderAt) string {
	var head [512]byte
	n, err := r.ReadAt(head[:], 0)
	if err != nil && err != io.EOF {
		return ""
	}
	return NormalizeMediaType(http.DetectContentType(head[:n]))
}

// InspectPDF reads the page count and the amount of extractable text of a PDF.
// A PDF without a text layer reports zero characters, not an error.
func InspectPDF(r io.ReaderAt, size int64) (Summary, error) {
	if size <= 0 {
		return Summary{}, ErrEmptyDocument
	}
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Summary{}, fmt.Errorf("open pdf: %w", err)
	}

	summary := Summary{Pages: reader.NumPage()}
	for i := 1; i <= summary.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		summary.TextChars += len(strings.TrimSpace(text))
	}
	return summary, nil
}
