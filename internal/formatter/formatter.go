// package formatter renders catalog shelves to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or common alias ("md", "text"). Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidFlag, s)
	}
}

// Slug turns a shelf name into a file-system friendly base name ("Main Library" -> "main-library").
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "shelf"
	}
	return slug
}

// Creator returns the author of a book or the director of a video.
func Creator(a *models.Asset) string {
	switch v := a.Variant.(type) {
	case models.Book:
		return v.Author
	case models.Video:
		return v.Director
	default:
		return ""
	}
}

func statusName(a *models.Asset) string {
	if a.Status == nil {
		return ""
	}
	return a.Status.Name
}

// ExportToCSV converts a Shelf to CSV format with columns: ID, Kind, Title, Creator, ISBN, Dewey, Year, Status
func ExportToCSV(shelf *models.Shelf) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Kind", "Title", "Creator", "ISBN", "Dewey", "Year", "Status"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, asset := range shelf.Assets {
		var isbn, dewey string
		if b, ok := asset.Book(); ok {
			isbn, dewey = b.ISBN, b.DeweyIndex
		}

		record := []string{
			strconv.FormatInt(asset.ID, 10),
			string(asset.Kind()),
			asset.Title,
			Creator(asset),
			isbn,
			dewey,
			strconv.Itoa(asset.Year),
			statusName(asset),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Shelf to Markdown format with an optional branch image
func ExportToMarkdown(shelf *models.Shelf, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", shelf.Name()))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Branch](%s)\n\n", imageFilename))
	}

	if b := shelf.Branch; b != nil {
		if b.Description != "" {
			buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", b.Description))
		}
		if b.Address != "" {
			buf.WriteString(fmt.Sprintf("**Address**: %s\n", b.Address))
		}
		if b.Telephone != "" {
			buf.WriteString(fmt.Sprintf("**Telephone**: %s\n", b.Telephone))
		}
		if b.OpenDate != nil {
			buf.WriteString(fmt.Sprintf("**Opened**: %s\n", b.OpenDate.Format(time.DateOnly)))
		}
	}

	buf.WriteString(fmt.Sprintf("**Assets**: %d\n\n", len(shelf.Assets)))

	var books, videos []*models.Asset
	for _, asset := range shelf.Assets {
		if asset.Kind() == models.KindBook {
			books = append(books, asset)
		} else {
			videos = append(videos, asset)
		}
	}

	if len(books) > 0 {
		buf.WriteString("## Books\n\n")
		for i, asset := range books {
			b, _ := asset.Book()
			buf.WriteString(fmt.Sprintf("%d. %s - %s", i+1, b.Author, asset.Title))
			if b.DeweyIndex != "" {
				buf.WriteString(fmt.Sprintf(" [%s]", b.DeweyIndex))
			}
			if b.ISBN != "" {
				buf.WriteString(fmt.Sprintf(" (ISBN %s)", b.ISBN))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	if len(videos) > 0 {
		buf.WriteString("## Videos\n\n")
		for i, asset := range videos {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, Creator(asset), asset.Title))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Shelf to plain text format
func ExportToText(shelf *models.Shelf) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Branch: %s\n", shelf.Name()))
	if shelf.Branch != nil && shelf.Branch.Address != "" {
		buf.WriteString(fmt.Sprintf("Address: %s\n", shelf.Branch.Address))
	}
	buf.WriteString(fmt.Sprintf("Assets: %d\n\n", len(shelf.Assets)))

	for _, asset := range shelf.Assets {
		buf.WriteString(AssetLine(asset))
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// AssetLine renders an asset on one line, e.g. "#1 [Book] Dune - Herbert (Available)".
func AssetLine(a *models.Asset) string {
	line := fmt.Sprintf("#%d [%s] %s", a.ID, a.Kind().Label(), a.Title)
	if c := Creator(a); c != "" {
		line += " - " + c
	}
	if s := statusName(a); s != "" {
		line += fmt.Sprintf(" (%s)", s)
	}
	return line
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of the shelf's branch (without assets)
func ToMetadataJSON(shelf *models.Shelf) ([]byte, error) {
	return shared.MarshalJSON(map[string]any{
		"name":        shelf.Name(),
		"branch":      shelf.Branch,
		"asset_count": len(shelf.Assets),
	}, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	AssetsFile   string
	MetadataFile string
}

// WriteCSVExport exports a shelf to CSV format with accompanying metadata JSON file.
//
// Defaults to the shelf slug as the base filename & creates {base}_assets.csv and {base}_metadata.json
func WriteCSVExport(shelf *models.Shelf, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = Slug(shelf.Name())
	}

	csvData, err := ExportToCSV(shelf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	assetsFile := baseFilepath + "_assets.csv"
	if err := os.WriteFile(assetsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(shelf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		AssetsFile:   assetsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory   string
	Files       []string
	BranchImage string
}

// WriteMarkdownExport exports a shelf to Markdown format in a dedicated directory.
//
// Directory name defaults to the shelf slug.
// The imageURL parameter is optional - if provided, attempts to download the branch image.
// Creates a directory structure: {dir}/README.md and optionally {dir}/branch.jpg
func WriteMarkdownExport(shelf *models.Shelf, outputDir string, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = Slug(shelf.Name())
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var imageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download branch image: %v\n", err)
		} else {
			imageFilename = "branch.jpg"
			imagePath := filepath.Join(outputDir, imageFilename)
			if err := os.WriteFile(imagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save branch image: %v\n", err)
				imageFilename = ""
			} else {
				result.BranchImage = imagePath
				result.Files = append(result.Files, imagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(shelf, imageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports a shelf to plain text format.
//
// Defaults to {slug}_assets.txt as the filename.
func WriteTextExport(shelf *models.Shelf, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_assets.txt", Slug(shelf.Name()))
	}

	textData, err := ExportToText(shelf)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a shelf with its assets as indented JSON.
//
// Defaults to {slug}.json as the filename.
func WriteJSONExport(shelf *models.Shelf, path string) (string, error) {
	if path == "" {
		path = Slug(shelf.Name()) + ".json"
	}

	data, err := shared.MarshalJSON(shelf, true)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}

	return path, nil
}
