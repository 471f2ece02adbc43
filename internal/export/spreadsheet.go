// Package export turns the result store into a styled spreadsheet or a
// server-produced media archive.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jonesrussell/crawldesk/internal/logger"
	"github.com/jonesrussell/crawldesk/internal/results"
)

// Exporters refuse to run while a session is active.
var (
	ErrSessionActive = errors.New("a crawl session is active")
	ErrNoResults     = errors.New("no results to export")
)

// SessionGuard reports whether the session controller is in a terminal
// state. Exporters refuse to run otherwise.
type SessionGuard interface {
	Terminal() bool
}

// Format selects the spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// previewLimit clips the content preview column.
const previewLimit = 200

// columns in fixed order.
var columns = []string{
	"Rank", "Original Title", "Translated Title", "Source Link",
	"Content Preview", "Views", "Likes", "Comments", "Published Date",
}

// columnWidths calibrated for readability, one per column.
var columnWidths = []float64{7, 44, 44, 36, 52, 10, 10, 11, 18}

// Result describes a finished spreadsheet export.
type Result struct {
	Path   string
	Format Format
	// FellBack is true when the workbook encoder failed and the file
	// was written as CSV instead.
	FellBack bool
}

// SpreadsheetExporter writes the result set to disk. It treats the
// result set as read-only.
type SpreadsheetExporter struct {
	guard SessionGuard
	log   logger.Logger
	now   func() time.Time
}

// NewSpreadsheetExporter creates an exporter guarded by the session
// controller.
func NewSpreadsheetExporter(guard SessionGuard, log logger.Logger) *SpreadsheetExporter {
	return &SpreadsheetExporter{guard: guard, log: log, now: time.Now}
}

// Export writes the result set to dir in the requested format. An xlsx
// encoding failure falls back to CSV with a UTF-8 BOM.
func (e *SpreadsheetExporter) Export(rs results.ResultSet, dir string, format Format) (Result, error) {
	if e.guard != nil && !e.guard.Terminal() {
		return Result{}, ErrSessionActive
	}
	if len(rs.Posts) == 0 {
		return Result{}, ErrNoResults
	}
	if format == "" {
		format = FormatXLSX
	}

	if format == FormatXLSX {
		path := filepath.Join(dir, e.filename(rs, FormatXLSX))
		err := writeWorkbook(rs, path)
		if err == nil {
			return Result{Path: path, Format: FormatXLSX}, nil
		}
		e.log.Warn("workbook export failed, falling back to csv", zap.Error(err))
		path = filepath.Join(dir, e.filename(rs, FormatCSV))
		if err := writeCSV(rs, path); err != nil {
			return Result{}, err
		}
		return Result{Path: path, Format: FormatCSV, FellBack: true}, nil
	}

	path := filepath.Join(dir, e.filename(rs, FormatCSV))
	if err := writeCSV(rs, path); err != nil {
		return Result{}, err
	}
	return Result{Path: path, Format: FormatCSV}, nil
}

// filename builds "YY.MM.DD HH.MM SITE start-end위.ext".
func (e *SpreadsheetExporter) filename(rs results.ResultSet, format Format) string {
	stamp := e.now().Format("06.01.02 15.04")
	return fmt.Sprintf("%s %s %d-%d위.%s",
		stamp, rs.Summary.SiteLabel,
		rs.Summary.RankRange.Start, rs.Summary.RankRange.End, format)
}

// writeWorkbook renders the styled xlsx: bold header, alternating row
// shading, calibrated column widths, hyperlinked source links.
func writeWorkbook(rs results.ResultSet, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Posts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center", Vertical: "center",
		},
	})
	if err != nil {
		return err
	}
	stripeStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "0563C1", Underline: "single"},
	})
	if err != nil {
		return err
	}

	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
		col, _, err := excelize.SplitCellName(cell)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, columnWidths[i]); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, post := range rs.Posts {
		row := i + 2
		values := []any{
			post.Rank,
			post.Title,
			post.TranslatedTitle,
			post.URL,
			preview(post.Body),
			post.Views,
			post.Likes,
			post.Comments,
			formatDate(post.PublishedAt),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}

		if post.URL != "" {
			cell, err := excelize.CoordinatesToCellName(4, row)
			if err != nil {
				return err
			}
			if err := f.SetCellHyperLink(sheet, cell, post.URL, "External"); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, linkStyle); err != nil {
				return err
			}
		}
		if row%2 == 0 {
			// Shade even rows, but keep the link style on column D.
			first, _ := excelize.CoordinatesToCellName(1, row)
			third, _ := excelize.CoordinatesToCellName(3, row)
			fifth, _ := excelize.CoordinatesToCellName(5, row)
			last, _ := excelize.CoordinatesToCellName(len(columns), row)
			if err := f.SetCellStyle(sheet, first, third, stripeStyle); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, fifth, last, stripeStyle); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

// writeCSV renders the fallback encoding: UTF-8 BOM plus RFC 4180 rows.
func writeCSV(rs results.ResultSet, path string) error {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF}) // UTF-8 BOM so Excel opens Korean text correctly

	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, post := range rs.Posts {
		record := []string{
			strconv.Itoa(post.Rank),
			post.Title,
			post.TranslatedTitle,
			post.URL,
			preview(post.Body),
			strconv.Itoa(post.Views),
			strconv.Itoa(post.Likes),
			strconv.Itoa(post.Comments),
			formatDate(post.PublishedAt),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// preview clips the body to 200 characters with an ellipsis.
func preview(body string) string {
	runes := []rune(strings.ReplaceAll(body, "\n", " "))
	if len(runes) <= previewLimit {
		return string(runes)
	}
	return string(runes[:previewLimit]) + "…"
}

// dateLayouts are tried in order when formatting the published date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006.01.02 15:04",
	"2006.01.02",
}

// formatDate renders a parseable date as "YYYY-MM-DD HH:MM"; anything
// else passes through as received.
func formatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return raw
}
