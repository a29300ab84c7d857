package harness

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func smallResult(t *testing.T) *Result {
	t.Helper()
	res, err := NewRunner(Float64, nil).Run(NormalizeExperiment(NewOracle(0), Sweep{Start: 0, Stop: 1000, Num: 3}))
	require.NoError(t, err)
	return res
}

func TestTSVSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TSVSink{W: &buf}).Write(smallResult(t)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# normalize (float64)", lines[0])
	assert.Equal(t, "x\tnaive\tshifted", lines[1])
	assert.Equal(t, "0\t0\t0", lines[2])
	assert.Equal(t, "1000\t0.5\t0", lines[4])
}

func TestYAMLSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLSink{W: &buf}).Write(smallResult(t)))

	var doc struct {
		Experiment string    `yaml:"experiment"`
		Precision  string    `yaml:"precision"`
		Summary    []Summary `yaml:"summary"`
		Series     []struct {
			Formula string        `yaml:"formula"`
			Samples []ErrorSample `yaml:"samples"`
		} `yaml:"series"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "normalize", doc.Experiment)
	assert.Equal(t, "float64", doc.Precision)
	require.Len(t, doc.Series, 2)
	assert.Equal(t, "naive", doc.Series[0].Formula)
	require.Len(t, doc.Series[0].Samples, 3)
	assert.Equal(t, ErrorSample{Input: 1000, Error: 0.5}, doc.Series[0].Samples[2])
	require.Len(t, doc.Summary, 2)
	assert.Equal(t, 1, doc.Summary[0].NaN)
}

func TestTextSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextSink{W: &buf}).Write(smallResult(t)))
	out := buf.String()
	assert.Contains(t, out, "normalize")
	assert.Contains(t, out, "points=3")
	assert.Contains(t, out, "naive")
	assert.Contains(t, out, "shifted")
}

func TestNewSink(t *testing.T) {
	for _, f := range []string{FormatTSV, FormatYAML, FormatText, "yml", ""} {
		s, err := NewSink(f, &bytes.Buffer{})
		require.NoError(t, err, f)
		assert.NotNil(t, s)
	}
	_, err := NewSink("png", &bytes.Buffer{})
	assert.Error(t, err)
}
