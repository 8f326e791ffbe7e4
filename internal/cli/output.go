package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/journal"
	strs "github.com/ynput/ayon-jira/pkg/strings"
)

// Column widths of the runs and entries tables.
const (
	errorWidth = 60
	nameWidth  = 50
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as tables
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as raw JSON data
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML data converted from JSON
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidateOutputFormat validates that the given format string is a supported output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// plainStyle renders kubectl-like tables: no borders, uppercase headers.
var plainStyle = table.Style{
	Name: "plain",
	Box: table.BoxStyle{
		PaddingLeft:  "",
		PaddingRight: "   ",
	},
	Format: table.FormatOptions{
		Header: text.FormatUpper,
	},
	Options: table.Options{},
}

// Printer writes results in one output format.
type Printer struct {
	w         io.Writer
	format    OutputFormat
	noHeaders bool
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, format OutputFormat, noHeaders bool) *Printer {
	if format == "" {
		format = OutputFormatTable
	}
	return &Printer{w: w, format: format, noHeaders: noHeaders}
}

// structured writes v as JSON or YAML. It reports false for table output.
func (p *Printer) structured(v any) (bool, error) {
	switch p.format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return true, err
	case OutputFormatYAML:
		// Round-trip through JSON so YAML keys follow the JSON field names.
		data, err := json.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = p.w.Write(out)
		return true, err
	default:
		return false, nil
	}
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(plainStyle)
	return t
}

// PrintReport writes a run report. runErr, when set, is shown as the outcome.
func (p *Printer) PrintReport(report *api.RunReport, runErr error) error {
	if report == nil {
		return nil
	}
	if done, err := p.structured(report); done {
		return err
	}

	summary := p.newTable()
	summary.SetStyle(table.StyleLight)
	summary.SetTitle("Run %s", report.RunID)
	summary.AppendRows([]table.Row{
		{"Template", report.TemplateName},
		{"Project", report.ProjectName},
		{"Outcome", outcome(report, runErr)},
		{"Duration", report.Duration().Round(time.Millisecond)},
	})
	if report.Actor != "" {
		summary.AppendRow(table.Row{"Actor", report.Actor})
	}
	summary.Render()

	counts := p.newTable()
	counts.SetStyle(table.StyleLight)
	counts.AppendHeader(table.Row{"Entity", "Created", "Updated", "Reused"})
	counts.AppendRows([]table.Row{
		{"Epics", report.Remote.EpicsCreated, "-", report.Remote.EpicsReused},
		{"Issues", report.Remote.IssuesCreated, report.Remote.IssuesUpdated, "-"},
		{"Links", report.Remote.LinksCreated, "-", report.Remote.LinksSkipped},
		{"Back-references", "-", report.Remote.BackrefsWritten, "-"},
		{"Tasks", report.Local.TasksCreated, report.Local.TasksUpdated, "-"},
	})
	counts.Render()

	if len(report.Scopes) > 0 {
		scopes := p.newTable()
		if !p.noHeaders {
			scopes.AppendHeader(table.Row{"Scope", "Location", "Custom ID", "Key"})
		}
		for _, mapping := range report.Scopes {
			ids := make([]string, 0, len(mapping.Issues))
			for id := range mapping.Issues {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				scopes.AppendRow(table.Row{mapping.Scope, mapping.Location, id, mapping.Issues[id]})
			}
		}
		fmt.Fprintln(p.w)
		scopes.Render()
	}

	for _, location := range report.Local.SkippedLocations {
		fmt.Fprintln(p.w, FormatWarning("skipped location "+location))
	}
	for _, warning := range report.Warnings {
		fmt.Fprintln(p.w, FormatWarning(warning))
	}
	return nil
}

func outcome(report *api.RunReport, runErr error) string {
	prefix := ""
	if report.DryRun {
		prefix = "dry run, "
	}
	switch {
	case runErr == nil:
		return text.FgGreen.Sprint(prefix + "succeeded")
	case api.IsPartial(runErr):
		return text.FgRed.Sprint(prefix + "partially changed, re-run required")
	default:
		return text.FgRed.Sprint(prefix + "failed, nothing was changed")
	}
}

// PrintRuns writes journaled runs, newest first.
func (p *Printer) PrintRuns(runs []api.RunRecord) error {
	if runs == nil {
		runs = []api.RunRecord{}
	}
	if done, err := p.structured(runs); done {
		return err
	}

	t := p.newTable()
	if !p.noHeaders {
		t.AppendHeader(table.Row{"Run", "Status", "Template", "Project", "Actor", "Started", "Entries", "Error"})
	}
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.RunID,
			run.Status,
			run.TemplateName,
			run.ProjectName,
			dash(run.Actor),
			run.StartedAt.Local().Format(time.DateTime),
			run.Entries,
			dash(strs.SingleLine(run.Error, errorWidth)),
		})
	}
	t.Render()
	return nil
}

// PrintEntries writes the journaled changes of one run.
func (p *Printer) PrintEntries(entries []journal.Entry) error {
	if entries == nil {
		entries = []journal.Entry{}
	}
	if done, err := p.structured(entries); done {
		return err
	}

	t := p.newTable()
	if !p.noHeaders {
		t.AppendHeader(table.Row{"At", "Kind", "Operation", "Scope", "Location", "Name", "Key"})
	}
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.At.Local().Format(time.TimeOnly),
			e.Kind,
			e.Operation,
			e.Scope,
			dash(e.Location),
			e.Name,
			dash(e.Key),
		})
	}
	t.Render()
	return nil
}

// PrintTemplates writes template names.
func (p *Printer) PrintTemplates(names []string) error {
	if names == nil {
		names = []string{}
	}
	if done, err := p.structured(names); done {
		return err
	}

	t := p.newTable()
	if !p.noHeaders {
		t.AppendHeader(table.Row{"Template"})
	}
	for _, name := range names {
		t.AppendRow(table.Row{name})
	}
	t.Render()
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
