package persona

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	// maxSourceBytes bounds how much raw text is read from one document.
	maxSourceBytes = 1 << 20
	// MaxPersonaBytes bounds the cleaned text kept from one document.
	MaxPersonaBytes = 64 << 10
)

type extractor func(path string) (string, error)

var extractors = map[string]extractor{
	"":          readPlain,
	".txt":      readPlain,
	".md":       readPlain,
	".markdown": readPlain,
	".pdf":      readPDF,
	".docx":     readDOCX,
}

// ExtractText reads a persona document (plain text, Markdown, PDF or DOCX)
// and returns its text with lines trimmed and blank runs collapsed, cut to
// MaxPersonaBytes.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("unsupported persona file type: %q", ext)
	}

	raw, err := extract(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	text := truncateText(cleanLines(raw), MaxPersonaBytes)
	if text == "" {
		return "", fmt.Errorf("no usable text in %s", path)
	}
	return text, nil
}

func readPlain(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxSourceBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readPDF(path string) (string, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(io.LimitReader(plain, maxSourceBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	body, err := archive.Open("word/document.xml")
	if err != nil {
		return "", fmt.Errorf("opening document body: %w", err)
	}
	defer body.Close()

	return wordprocessingText(body)
}

// wordprocessingText walks a WordprocessingML body and keeps the run text.
// Paragraph ends and line breaks become newlines, tabs inside a run stay tabs.
// Element names are matched on their local part only.
func wordprocessingText(src io.Reader) (string, error) {
	dec := xml.NewDecoder(src)
	var (
		b      strings.Builder
		inRun  int
		inText bool
	)

	for b.Len() < maxSourceBytes {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				inRun++
			case "t":
				inText = true
			case "br", "cr":
				if inRun > 0 {
					b.WriteByte('\n')
				}
			case "tab":
				if inRun > 0 {
					b.WriteByte('\t')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				if inRun > 0 {
					inRun--
				}
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}

// cleanLines trims every line, drops leading blank lines and keeps at most
// one blank line between paragraphs.
func cleanLines(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" && (len(lines) == 0 || lines[len(lines)-1] == "") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// truncateText cuts s to at most max bytes on a rune boundary.
func truncateText(s string, max int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
