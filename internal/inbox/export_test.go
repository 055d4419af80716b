package inbox

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dropterm/internal/model"
)

func TestHTMLSink_EscapesEveryField(t *testing.T) {
	r := NewRenderer(0)
	sink := &HTMLSink{}

	r.Render([]model.Message{{
		ID:          "m1",
		From:        "<script>alert('from')</script> <x@example.com>",
		Subject:     "<script>alert('subject')</script> & more",
		Text:        "<img src=x onerror=alert(1)> code 4455",
		DownloadURL: "javascript:alert(1)",
	}}, sink)

	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, "me@dropmail.test", time.Unix(0, 0).UTC()))
	out := buf.String()

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&amp; more")
	assert.Contains(t, out, "[CODE: 4455]")
}

func TestHTMLSink_EmptyPlaceholderOnce(t *testing.T) {
	r := NewRenderer(0)
	sink := &HTMLSink{}

	r.Render(nil, sink)
	r.Render(nil, sink)

	var buf bytes.Buffer
	require.NoError(t, sink.Write(&buf, "me@dropmail.test", time.Now()))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("empty-state")))
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "inbox.html")
	rows := Rows([]model.Message{{ID: "m1", From: "Alice <a@example.com>", Subject: "Hi"}})

	require.NoError(t, ExportFile(path, "me@dropmail.test", rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice")
	assert.Contains(t, string(data), NoBody)
}
