// Package console renders summaries and run progress for the command line.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"costsheet/pkg/contracts/domain"
)

// Predefined colors for status words.
var (
	BoldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	BoldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	BoldRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	BoldCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Console writes human output to one writer.
type Console struct {
	out io.Writer
}

// New creates a Console writing to out.
func New(out io.Writer) *Console {
	return &Console{out: out}
}

// DisableColor turns off ANSI styling for both pterm and color output.
func DisableColor() {
	pterm.DisableStyling()
	color.NoColor = true
}

// Info prints an informational line.
func (c *Console) Info(format string, a ...interface{}) {
	pterm.Info.WithWriter(c.out).Printfln(format, a...)
}

// Warning prints a warning line.
func (c *Console) Warning(format string, a ...interface{}) {
	pterm.Warning.WithWriter(c.out).Printfln(format, a...)
}

// Error prints an error line.
func (c *Console) Error(format string, a ...interface{}) {
	pterm.Error.WithWriter(c.out).Printfln(format, a...)
}

// Success prints a success line.
func (c *Console) Success(format string, a ...interface{}) {
	pterm.Success.WithWriter(c.out).Printfln(format, a...)
}

// StatusWord colors a summary status.
func StatusWord(s domain.SummaryStatus) string {
	switch s {
	case domain.StatusSuccess:
		return BoldGreen(string(s))
	case domain.StatusEmpty:
		return BoldYellow(string(s))
	default:
		return BoldRed(string(s))
	}
}

// SummaryTable renders a summary as a two-column table.
func SummaryTable(s domain.CostSummary) string {
	data := pterm.TableData{{"Field", "Value"}}
	data = append(data,
		[]string{"Status", StatusWord(s.Status)},
		[]string{"Source", string(s.Source)},
		[]string{"Column", orDash(s.Column)},
		[]string{"Total expense", Money(s.Total)},
		[]string{"Entries", strconv.Itoa(s.Count)},
		[]string{"Average", optionalMoney(s.Average)},
		[]string{"Maximum", optionalMoney(s.Maximum)},
		[]string{"Message", s.Message},
	)
	if s.ErrorCode != "" {
		data = append(data, []string{"Error code", s.ErrorCode})
	}

	rendered, _ := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	return rendered
}

// PrintSummary writes the summary table followed by the values found.
func (c *Console) PrintSummary(s domain.CostSummary) {
	fmt.Fprintln(c.out, SummaryTable(s))
	if len(s.Values) == 0 {
		return
	}
	vals := make([]string, len(s.Values))
	for i, v := range s.Values {
		vals[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	fmt.Fprintf(c.out, "%s %s\n", BoldCyan("Values found:"), strings.Join(vals, ", "))
}

// PrintColumns lists candidate headers after column resolution failed.
func (c *Console) PrintColumns(columns, numeric []string) {
	if len(columns) == 0 {
		return
	}
	c.Warning("No cost column found. Re-run with --column NAME using one of:")
	numericSet := make(map[string]bool, len(numeric))
	for _, n := range numeric {
		numericSet[n] = true
	}
	for _, col := range columns {
		if numericSet[col] {
			fmt.Fprintf(c.out, "  %s %s\n", col, BoldGreen("(numeric)"))
			continue
		}
		fmt.Fprintf(c.out, "  %s\n", col)
	}
}

// Money formats an amount with two decimals and a dollar sign.
func Money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func optionalMoney(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return Money(*v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// StepReporter shows live pipeline steps on a spinner. It is safe for
// concurrent use.
type StepReporter struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *pterm.SpinnerPrinter
}

// NewStepReporter starts a spinner with title. When out is not a terminal
// the spinner degrades to one line per step.
func (c *Console) NewStepReporter(title string) *StepReporter {
	spinner, err := pterm.DefaultSpinner.WithWriter(c.out).Start(title)
	if err != nil {
		spinner = nil
	}
	return &StepReporter{out: c.out, spinner: spinner}
}

// ReportStep updates the spinner text with step progress.
func (r *StepReporter) ReportStep(step domain.StepRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("[%3d%%] %s: %s", step.Progress, step.Name, step.Status)
	if step.Message != "" {
		line += " (" + step.Message + ")"
	}
	if r.spinner == nil {
		fmt.Fprintln(r.out, line)
		return
	}
	r.spinner.UpdateText(line)
}

// Stop ends the spinner, marking it failed unless ok.
func (r *StepReporter) Stop(ok bool, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinner == nil {
		fmt.Fprintln(r.out, message)
		return
	}
	if ok {
		r.spinner.Success(message)
	} else {
		r.spinner.Fail(message)
	}
	r.spinner = nil
}
