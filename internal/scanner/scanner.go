// Package scanner inspects the stream behind a locator and reports what the
// fetcher did with it: classification, strategy, size, content type, and
// digest.
package scanner

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
)

// sniffLen is the number of leading bytes kept for content detection.
const sniffLen = 64 * 1024

// ScanResult holds the inspection report of one locator.
type ScanResult struct {
	Locator     string         `json:"locator"`
	Kind        locator.Kind   `json:"kind"`
	Strategy    fetch.Strategy `json:"strategy"`
	Resolved    string         `json:"resolved,omitempty"`
	Bytes       int64          `json:"bytes"`
	ContentType string         `json:"contentType,omitempty"`
	SHA256      string         `json:"sha256,omitempty"`
	Title       string         `json:"title,omitempty"`
	NotFound    bool           `json:"notFound,omitempty"`
	Error       string         `json:"error,omitempty"`

	ExecutionError error `json:"-"`
}

// Scanner encapsulates the fetcher used to open locators.
type Scanner struct {
	fetcher fetch.Fetcher
	log     *zap.SugaredLogger
}

// NewScanner creates a new Scanner on top of fetcher.
func NewScanner(fetcher fetch.Fetcher, log *zap.SugaredLogger) *Scanner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{fetcher: fetcher, log: log}
}

// ScanTarget opens raw, drains the stream, and reports on it. A partial
// result is returned together with the error when opening or reading fails.
func (s *Scanner) ScanTarget(ctx context.Context, raw string) (*ScanResult, error) {
	loc, err := locator.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}

	kind, strategy := s.fetcher.Plan(loc)
	result := &ScanResult{
		Locator:  loc.String(),
		Kind:     kind,
		Strategy: strategy,
	}

	s.log.Debugf("inspecting %s as %s via %s", loc, kind, strategy)
	stream, err := s.fetcher.Open(ctx, loc)
	if err != nil {
		return result.fail(err), err
	}
	defer stream.Close()

	result.Strategy = stream.Strategy()
	if resolved := stream.Resolved(); !resolved.IsZero() {
		result.Resolved = resolved.String()
	}

	if err := result.digest(stream); err != nil {
		err = fmt.Errorf("scanner: failed to read %s: %w", loc, err)
		return result.fail(err), err
	}
	s.log.Debugf("inspected %s: %d bytes, %s", loc, result.Bytes, result.ContentType)
	return result, nil
}

func (r *ScanResult) fail(err error) *ScanResult {
	r.ExecutionError = err
	r.Error = err.Error()
	r.NotFound = errors.Is(err, fetch.ErrNotFound)
	return r
}

func (r *ScanResult) digest(src io.Reader) error {
	h := sha256.New()
	head := &bytes.Buffer{}
	n, err := io.Copy(io.MultiWriter(h, &limitWriter{w: head, n: sniffLen}), src)
	r.Bytes = n
	if err != nil {
		return err
	}

	r.SHA256 = hex.EncodeToString(h.Sum(nil))
	if n == 0 {
		return nil
	}
	r.ContentType = http.DetectContentType(head.Bytes())
	if strings.HasPrefix(r.ContentType, "text/html") {
		r.Title = htmlTitle(head.Bytes())
	}
	return nil
}

// htmlTitle returns the document title of an HTML prefix, if any.
func htmlTitle(b []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// limitWriter keeps the first n bytes written and discards the rest.
type limitWriter struct {
	w io.Writer
	n int
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if l.n > 0 {
		keep := p
		if len(keep) > l.n {
			keep = keep[:l.n]
		}
		if _, err := l.w.Write(keep); err != nil {
			return 0, err
		}
		l.n -= len(keep)
	}
	return len(p), nil
}

// PrintResults formats and prints the scan results to stdout.
func PrintResults(result *ScanResult, outputFormat string) error {
	switch outputFormat {
	case "json":
		outJSON, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result to JSON: %w", err)
		}
		fmt.Println(string(outJSON))
	case "text":
		title := color.New(color.FgWhite, color.Bold).SprintfFunc()
		label := color.New(color.FgYellow).SprintFunc()
		value := color.New(color.FgCyan).SprintFunc()
		valBoolTrue := color.New(color.FgGreen).SprintFunc()
		valBoolFalse := color.New(color.FgRed).SprintFunc()
		errorText := color.New(color.FgRed).SprintFunc()

		fmt.Printf("%s: %s\n", title("Inspection Results for"), value(result.Locator))
		fmt.Printf("%s %s\n", label("Kind:"), value(result.Kind))
		fmt.Printf("%s %s\n", label("Strategy:"), value(result.Strategy))
		if result.Resolved != "" {
			fmt.Printf("%s %s\n", label("Resolved:"), value(result.Resolved))
		}
		if result.ExecutionError != nil || result.Error != "" {
			fmt.Printf("%s %s\n", label("Not Found:"), formatBool(result.NotFound, valBoolTrue, valBoolFalse))
			fmt.Printf("%s %s\n", label("Error:"), errorText(result.Error))
			return nil
		}
		fmt.Printf("%s %s\n", label("Bytes:"), value(result.Bytes))
		fmt.Printf("%s %s\n", label("Content Type:"), value(result.ContentType))
		fmt.Printf("%s %s\n", label("SHA-256:"), value(result.SHA256))
		if result.Title != "" {
			fmt.Printf("%s %s\n", label("HTML Title:"), value(result.Title))
		}
	default:
		return fmt.Errorf("unknown output format: %s", outputFormat)
	}
	return nil
}

// formatBool helper for colorizing boolean output
func formatBool(b bool, trueColorFunc, falseColorFunc func(a ...interface{}) string) string {
	if b {
		return trueColorFunc("true")
	}
	return falseColorFunc("false")
}

// FormatText renders the result without colors.
func FormatText(result *ScanResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Inspection Results for: %s\n", result.Locator))
	sb.WriteString(fmt.Sprintf("Kind: %s\n", result.Kind))
	sb.WriteString(fmt.Sprintf("Strategy: %s\n", result.Strategy))
	if result.Resolved != "" {
		sb.WriteString(fmt.Sprintf("Resolved: %s\n", result.Resolved))
	}
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("Not Found: %t\n", result.NotFound))
		sb.WriteString(fmt.Sprintf("Error: %s\n", result.Error))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("Bytes: %d\n", result.Bytes))
	sb.WriteString(fmt.Sprintf("Content Type: %s\n", result.ContentType))
	sb.WriteString(fmt.Sprintf("SHA-256: %s\n", result.SHA256))
	if result.Title != "" {
		sb.WriteString(fmt.Sprintf("HTML Title: %s\n", result.Title))
	}
	return sb.String()
}

// WriteOutput formats and writes the scan results to a file.
func WriteOutput(result *ScanResult, outputFile string, outputFormat string) error {
	var outputBytes []byte
	switch outputFormat {
	case "json":
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result to JSON for file output: %w", err)
		}
		outputBytes = append(b, '\n')
	case "text":
		outputBytes = []byte(FormatText(result))
	default:
		return fmt.Errorf("unknown output format for file writing: %s", outputFormat)
	}

	if err := os.WriteFile(outputFile, outputBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write output file '%s': %w", outputFile, err)
	}
	return nil
}
