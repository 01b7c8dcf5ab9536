package output

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

type sampleTable []sample

func (s sampleTable) Header() []string { return []string{"Name", "Bytes"} }

func (s sampleTable) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, e := range s {
		rows = append(rows, []string{e.Name, strconv.FormatInt(e.Bytes, 10)})
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"TABLE", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Write(&buf, sample{Name: "a.txt", Bytes: 3}))

	var got sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample{Name: "a.txt", Bytes: 3}, got)
	assert.Contains(t, buf.String(), "\n  \"name\"", "output is indented")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Write(&buf, sample{Name: "b.bin", Bytes: 4097}))

	var got sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample{Name: "b.bin", Bytes: 4097}, got)
}

func TestTextFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	data := sampleTable{{"a.txt", 3}, {"b.bin", 4097}}
	require.NoError(t, NewFormatter(FormatText).Write(&buf, data))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "4097")
	assert.NotContains(t, out, "|", "table is borderless")
}

func TestTextFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText).Write(&buf, sampleTable{}))
	assert.Equal(t, "No items found\n", buf.String())
}

func TestTextFormatter_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText).Write(&buf, "/data/assets"))
	assert.Equal(t, "/data/assets\n", buf.String())
}
