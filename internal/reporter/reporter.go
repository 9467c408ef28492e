package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fenilsonani/sortdir/internal/classifier"
	"github.com/fenilsonani/sortdir/internal/organizer"
	"github.com/fenilsonani/sortdir/internal/progress"
	"github.com/fenilsonani/sortdir/internal/ui/styles"
	"github.com/fenilsonani/sortdir/pkg/utils"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat accepts a format name in any case
func ParseFormat(value string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	case "":
		return FormatSummary, nil
	}
	return "", fmt.Errorf("unsupported format: %s", value)
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report writes an organize report in the configured format
func (r *Reporter) Report(report *organizer.Report) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(report)
	case FormatJSON:
		return r.reportJSON(report)
	case FormatYAML:
		return r.reportYAML(report)
	case FormatSummary:
		return r.reportSummary(report)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// sortedExtensions orders populated buckets by category, then by the
// category's extension order
func sortedExtensions(report *organizer.Report) []string {
	var exts []string
	for _, ext := range classifier.KnownExtensions() {
		if len(report.Extensions[ext]) > 0 {
			exts = append(exts, ext)
		}
	}
	return exts
}

func (r *Reporter) reportSummary(report *organizer.Report) error {
	title := "=== Sort Summary ==="
	if report.DryRun {
		title = "=== Sort Plan (dry run) ==="
	}
	fmt.Fprintln(r.writer, styles.TitleStyle.Render(title))
	fmt.Fprintf(r.writer, "Root: %s\n", styles.FilePathStyle.Render(report.Root))
	if report.RunID != "" {
		fmt.Fprintf(r.writer, "Run: %s\n", report.RunID)
	}
	fmt.Fprintf(r.writer, "Total: %s, %s\n",
		utils.Plural(report.FileCount()+len(report.Unclassified), "file", "files"),
		utils.FormatBytes(report.TotalBytes))
	if report.Duration > 0 {
		fmt.Fprintf(r.writer, "Duration: %s\n", progress.FormatDuration(report.Duration))
	}

	exts := sortedExtensions(report)
	if len(exts) > 0 {
		fmt.Fprintf(r.writer, "\n%s\n", styles.SubtitleStyle.Render("Classified:"))
		for _, ext := range exts {
			fmt.Fprintf(r.writer, "  %-5s %-10s -> %s\n",
				ext,
				utils.Plural(len(report.Extensions[ext]), "file", "files"),
				styles.CategoryStyle.Render(classifier.Destination(ext)))
		}
	} else {
		fmt.Fprintf(r.writer, "\n%s\n", styles.DimStyle.Render("No classified files."))
	}

	if len(report.Unknown) > 0 {
		fmt.Fprintf(r.writer, "\nUnknown extensions: %s\n", strings.Join(report.Unknown, ", "))
	}
	if n := len(report.Unclassified); n > 0 {
		fmt.Fprintf(r.writer, "Unclassified: %s -> %s\n",
			utils.Plural(n, "file", "files"), string(classifier.Unclassified))
	}

	if len(report.Excluded) > 0 {
		fmt.Fprintf(r.writer, "Excluded: %s\n", utils.Plural(len(report.Excluded), "entry", "entries"))
	}

	if len(report.Extracted) > 0 {
		fmt.Fprintf(r.writer, "\n%s %s\n",
			styles.SuccessStyle.Render("Extracted:"),
			utils.Plural(len(report.Extracted), "archive", "archives"))
		for _, target := range report.Extracted {
			fmt.Fprintf(r.writer, "  %s\n", styles.FilePathStyle.Render(target))
		}
	}
	if len(report.Corrupt) > 0 {
		fmt.Fprintf(r.writer, "\n%s %s\n",
			styles.WarningStyle.Render("Corrupt archives deleted:"),
			utils.Plural(len(report.Corrupt), "archive", "archives"))
		for _, path := range report.Corrupt {
			fmt.Fprintf(r.writer, "  %s\n", path)
		}
	}

	if len(report.Pruned) > 0 {
		fmt.Fprintf(r.writer, "\nPruned: %s\n", utils.Plural(len(report.Pruned), "directory", "directories"))
	}
	if len(report.PruneFailures) > 0 {
		fmt.Fprintf(r.writer, "\n%s\n", styles.WarningStyle.Render("Not pruned:"))
		for _, f := range report.PruneFailures {
			fmt.Fprintf(r.writer, "  %s: %s\n", f.Path, f.Reason)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprint(r.writer, styles.ErrorStyle.Render(organizer.FormatErrorSummary(report.Errors)))
		fmt.Fprintln(r.writer)
	}

	return nil
}

func (r *Reporter) reportTable(report *organizer.Report) error {
	table := tablewriter.NewWriter(r.writer)
	table.SetHeader([]string{"Ext", "Files", "Destination"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, ext := range sortedExtensions(report) {
		table.Append([]string{
			ext,
			fmt.Sprintf("%d", len(report.Extensions[ext])),
			classifier.Destination(ext),
		})
	}
	if n := len(report.Unclassified); n > 0 || len(report.Unknown) > 0 {
		table.Append([]string{
			strings.Join(report.Unknown, ","),
			fmt.Sprintf("%d", n),
			string(classifier.Unclassified),
		})
	}
	table.Render()

	fmt.Fprintf(r.writer, "\nTotal: %s, %s\n",
		utils.Plural(report.FileCount()+len(report.Unclassified), "file", "files"),
		utils.FormatBytes(report.TotalBytes))
	if len(report.Corrupt) > 0 {
		fmt.Fprintf(r.writer, "Corrupt archives deleted: %d\n", len(report.Corrupt))
	}
	for _, f := range report.PruneFailures {
		fmt.Fprintf(r.writer, "Not pruned: %s: %s\n", f.Path, f.Reason)
	}
	if len(report.Errors) > 0 {
		fmt.Fprintf(r.writer, "Errors: %d\n", len(report.Errors))
	}

	return nil
}

type document struct {
	organizer.Report   `yaml:",inline"`
	TotalFiles         int    `json:"total_files" yaml:"total_files"`
	TotalSizeFormatted string `json:"total_size_formatted" yaml:"total_size_formatted"`
}

func newDocument(report *organizer.Report) document {
	return document{
		Report:             *report,
		TotalFiles:         report.FileCount() + len(report.Unclassified),
		TotalSizeFormatted: utils.FormatBytes(report.TotalBytes),
	}
}

func (r *Reporter) reportJSON(report *organizer.Report) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newDocument(report))
}

func (r *Reporter) reportYAML(report *organizer.Report) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(newDocument(report))
}

// SaveToFile saves the report to a file
func SaveToFile(report *organizer.Report, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return New(file, format).Report(report)
}
