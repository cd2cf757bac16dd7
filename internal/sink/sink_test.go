package sink

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

func sample() *entry.Record {
	return &entry.Record{
		Seq:     7,
		Time:    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Stream:  "stderr",
		Source:  "exec:make",
		Payload: []byte("compile failed"),
	}
}

func TestTerminalSink(t *testing.T) {
	var out bytes.Buffer
	s := NewTerminalSink(&out, false)

	require.NoError(t, s.Write(sample()))
	assert.Empty(t, out.String(), "output is buffered until flush")
	require.NoError(t, s.Close())

	assert.Equal(t, "[2024-05-06T07:08:09Z][stderr]: compile failed\n", out.String())
	assert.Equal(t, "terminal", s.Name())
}

func TestTerminalSinkColor(t *testing.T) {
	var out bytes.Buffer
	s := NewTerminalSink(&out, true)

	require.NoError(t, s.Write(sample()))
	require.NoError(t, s.Flush())

	assert.Contains(t, out.String(), colorRed+"[stderr]")
	assert.Contains(t, out.String(), "compile failed\n")
}

func TestJSONSink(t *testing.T) {
	var out bytes.Buffer
	s, err := New(FormatJSON, &out, false, nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(sample()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, float64(7), got["seq"])
	assert.Equal(t, "2024-05-06T07:08:09.000Z", got["timestamp"])
	assert.Equal(t, "stderr", got["stream"])
	assert.Equal(t, "exec:make", got["source"])
	assert.Equal(t, "compile failed", got["message"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)

	_, err = New(Format("xml"), nil, false, nil)
	assert.Error(t, err)
}

func TestFileSink(t *testing.T) {
	path := t.TempDir() + "/out.log"
	s, err := NewFileSink(path, FormatText, levelFields{})
	require.NoError(t, err)

	require.NoError(t, s.Write(sample()))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[2024-05-06T07:08:09Z][stderr]: compile failed\n", string(data))
	assert.Equal(t, "file:"+path, s.Name())
}

func TestFileSinkJSONFields(t *testing.T) {
	path := t.TempDir() + "/out.json"
	s, err := NewFileSink(path, FormatJSON, levelFields{})
	require.NoError(t, err)

	require.NoError(t, s.Write(sample()))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"phase": "compile"}, got["fields"])
}

type levelFields struct{}

func (levelFields) Fields(payload []byte) map[string]string {
	if bytes.HasPrefix(payload, []byte("compile")) {
		return map[string]string{"phase": "compile"}
	}
	return nil
}

func TestJSONSinkFields(t *testing.T) {
	var out bytes.Buffer
	s := NewJSONSink(&out).WithFields(levelFields{})

	require.NoError(t, s.Write(sample()))
	other := sample()
	other.Payload = []byte("link ok")
	require.NoError(t, s.Write(other))

	dec := json.NewDecoder(&out)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, map[string]any{"phase": "compile"}, first["fields"])
	assert.NotContains(t, second, "fields")
}
