package rawmail

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: Alice <alice@example.com>\r\n" +
	"To: me@dropmail.test\r\n" +
	"Subject: Your code\r\n" +
	"Date: Tue, 13 Oct 2026 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Your code is 123456\r\n" +
	"--XYZ\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"invoice.pdf\"\r\n" +
	"\r\n" +
	"PDFDATA\r\n" +
	"--XYZ--\r\n"

func TestParse(t *testing.T) {
	s, err := Parse([]byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "Your code", s.Subject)
	assert.Contains(t, s.From, "alice@example.com")
	assert.Equal(t, 2026, s.Date.Year())
	assert.Equal(t, 2, s.Parts)
	require.Len(t, s.Attachments, 1)
	assert.Equal(t, "invoice.pdf", s.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", s.Attachments[0].MIMEType)
	assert.Equal(t, int64(len("PDFDATA")), s.Attachments[0].Size)

	desc := s.Describe()
	assert.Contains(t, desc, "2 parts")
	assert.Contains(t, desc, "1 attachment")
	assert.NotContains(t, desc, "1 attachments")
}

func TestParse_SinglePart(t *testing.T) {
	raw := "From: bob@example.com\r\nSubject: hi\r\n\r\nbody\r\n"

	s, err := Parse([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Parts)
	assert.Empty(t, s.Attachments)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	path, err := Save(dir, "../TWFpbDox", []byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".eml"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, multipartMessage, string(data))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "TWFpbDox.eml", FileName("TWFpbDox"))
	assert.Equal(t, "___etc_passwd.eml", FileName("../etc/passwd"))
	assert.Equal(t, "message.eml", FileName(""))
}
