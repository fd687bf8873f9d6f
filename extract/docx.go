package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DOCX extracts paragraph text from Office Open XML word documents, one
// paragraph per line.
type DOCX struct {
	MaxBytes int64
}

// Extract reads word/document.xml from the archive at path.
func (d DOCX) Extract(ctx context.Context, path string) (string, error) {
	data, err := readLimited(ctx, path, limitOr(d.MaxBytes))
	if err != nil {
		return "", err
	}
	return d.Text(data)
}

// Text extracts the paragraphs of an in-memory DOCX archive.
func (d DOCX) Text(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: docx: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		if f.UncompressedSize64 > uint64(limitOr(d.MaxBytes)) {
			return "", fmt.Errorf("%w: word/document.xml", ErrTooLarge)
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract: docx: %w", err)
		}
		defer rc.Close()
		return paragraphs(io.LimitReader(rc, limitOr(d.MaxBytes)))
	}
	return "", errors.New("extract: docx: word/document.xml not found")
}

// paragraphs concatenates w:t runs, breaking lines at w:p boundaries and
// turning w:tab and w:br into whitespace.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out []string
	var para strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract: docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out = append(out, para.String())
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.Join(out, "\n"), nil
}
