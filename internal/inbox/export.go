package inbox

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"
)

// exportTemplate renders every untrusted field through html/template's
// contextual escaping, including the body and the download link.
var exportTemplate = template.Must(template.New("inbox").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Address}}</title>
</head>
<body>
<h1>{{.Address}}</h1>
<p class="generated">exported {{.Generated}}</p>
{{- if .Empty}}
<div class="empty-state"><p>&gt; Buffer empty.</p><p>&gt; Listening...</p></div>
{{- else}}
{{- range .Rows}}
<div class="email-item">
  <div class="email-sender">{{.Sender}}</div>
  <div class="email-subject">{{.Subject}}</div>
  <div class="email-actions">{{if .HasCode}}<span class="otp">[CODE: {{.Code}}]</span> {{end}}<span class="read-indicator">[READ]</span></div>
  <div class="email-from">{{.Message.From}}</div>
  <pre class="email-text">{{.BodyOrDefault}}</pre>
  {{- if .Message.DownloadURL}}
  <a class="email-download" href="{{.Message.DownloadURL}}">download</a>
  {{- end}}
</div>
{{- end}}
{{- end}}
</body>
</html>
`))

// HTMLSink collects a rendered inbox for an HTML snapshot.
type HTMLSink struct {
	empty bool
	rows  []Row
}

// ShowEmpty implements Sink.
func (s *HTMLSink) ShowEmpty() {
	s.empty = true
	s.rows = nil
}

// ShowingEmpty implements Sink.
func (s *HTMLSink) ShowingEmpty() bool { return s.empty }

// Replace implements Sink.
func (s *HTMLSink) Replace(rows []Row) {
	s.empty = false
	s.rows = rows
}

type exportRow struct {
	Row
}

// BodyOrDefault is used by the template.
func (r exportRow) BodyOrDefault() string { return BodyOrDefault(r.Body) }

// Write renders the collected inbox as a standalone HTML document.
func (s *HTMLSink) Write(w io.Writer, address string, now time.Time) error {
	rows := make([]exportRow, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, exportRow{r})
	}

	data := struct {
		Address   string
		Generated string
		Empty     bool
		Rows      []exportRow
	}{
		Address:   address,
		Generated: now.Format(time.RFC3339),
		Empty:     len(rows) == 0,
		Rows:      rows,
	}

	if err := exportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering inbox export: %w", err)
	}
	return nil
}

// ExportFile writes rows as an HTML snapshot at path.
func ExportFile(path, address string, rows []Row) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file %s: %w", path, err)
	}

	sink := &HTMLSink{}
	if len(rows) == 0 {
		sink.ShowEmpty()
	} else {
		sink.Replace(rows)
	}

	if err := sink.Write(f, address, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file %s: %w", path, err)
	}
	return nil
}
