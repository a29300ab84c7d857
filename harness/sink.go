package harness

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Sink receives finished results. Rendering, plotting and storage are
// left to implementations.
type Sink interface {
	Write(r *Result) error
}

// Output formats understood by NewSink.
const (
	FormatTSV  = "tsv"
	FormatYAML = "yaml"
	FormatText = "text"
)

// NewSink returns the sink for format writing to w.
func NewSink(format string, w io.Writer) (Sink, error) {
	switch format {
	case FormatTSV:
		return &TSVSink{W: w}, nil
	case FormatYAML, "yml":
		return &YAMLSink{W: w}, nil
	case FormatText, "":
		return &TextSink{W: w}, nil
	}
	return nil, fmt.Errorf("harness: unknown output format %q", format)
}

// TSVSink writes one row per sweep point: the input followed by the error
// of each formula, preceded by a header row. Ready for any plotting tool.
type TSVSink struct {
	W io.Writer
}

func (s *TSVSink) Write(r *Result) error {
	bw := bufio.NewWriter(s.W)
	fmt.Fprintf(bw, "# %s (%s)\n", r.Experiment, r.Precision)
	bw.WriteString("x")
	for _, name := range r.Formulas {
		bw.WriteByte('\t')
		bw.WriteString(name)
	}
	bw.WriteByte('\n')

	grid, shape := r.Grid()
	for i := 0; i < shape[1]; i++ {
		bw.WriteString(formatFloat(At(grid, shape, 0, i).Input))
		for f := 0; f < shape[0]; f++ {
			bw.WriteByte('\t')
			bw.WriteString(formatFloat(At(grid, shape, f, i).Error))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type yamlSeries struct {
	Formula string        `yaml:"formula"`
	Samples []ErrorSample `yaml:"samples,flow"`
}

type yamlReport struct {
	Experiment string       `yaml:"experiment"`
	Precision  Precision    `yaml:"precision"`
	Summary    []Summary    `yaml:"summary"`
	Series     []yamlSeries `yaml:"series"`
}

// YAMLSink writes the summaries and full series as one YAML document.
type YAMLSink struct {
	W io.Writer
}

func (s *YAMLSink) Write(r *Result) error {
	doc := yamlReport{
		Experiment: r.Experiment,
		Precision:  r.Precision,
		Summary:    Summarize(r),
	}
	for _, name := range r.Formulas {
		doc.Series = append(doc.Series, yamlSeries{Formula: name, Samples: r.Series[name]})
	}
	enc := yaml.NewEncoder(s.W)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", r.Experiment, err)
	}
	return enc.Close()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Underline(true)
)

// TextSink writes a human-readable summary table.
type TextSink struct {
	W io.Writer
}

func (s *TextSink) Write(r *Result) error {
	sums := Summarize(r)
	width := len("formula")
	for _, sm := range sums {
		width = max(width, len(sm.Formula))
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  precision=%s  points=%d", r.Experiment, r.Precision, r.Points())))
	b.WriteByte('\n')
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %6s %6s %12s %12s %12s", width, "formula", "nan", "inf", "mean", "median", "max")))
	b.WriteByte('\n')
	for _, sm := range sums {
		fmt.Fprintf(&b, "%-*s %6d %6d %12.4g %12.4g %12.4g\n",
			width, sm.Formula, sm.NaN, sm.NonFinite, sm.Mean, sm.Median, sm.Max)
	}
	_, err := io.WriteString(s.W, b.String())
	return err
}
