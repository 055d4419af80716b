// Package rawmail saves and inspects downloaded RFC 5322 messages.
package rawmail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/emersion/go-message/mail"
)

// Attachment holds metadata about a message attachment.
type Attachment struct {
	Filename string
	Size     int64
	MIMEType string
}

// Summary describes a parsed raw message.
type Summary struct {
	Subject     string
	From        string
	Date        time.Time
	Size        int
	Parts       int
	Attachments []Attachment
}

// Parse reads the headers and walks the MIME tree of raw.
func Parse(raw []byte) (*Summary, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	defer mr.Close()

	s := &Summary{Size: len(raw)}
	s.Subject, _ = mr.Header.Subject()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		s.From = from[0].String()
	}
	if d, err := mr.Header.Date(); err == nil {
		s.Date = d
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, fmt.Errorf("reading message part %d: %w", s.Parts+1, err)
		}
		s.Parts++

		if h, ok := part.Header.(*mail.AttachmentHeader); ok {
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			n, readErr := io.Copy(io.Discard, part.Body)
			if readErr != nil {
				continue
			}
			s.Attachments = append(s.Attachments, Attachment{
				Filename: filename,
				Size:     n,
				MIMEType: contentType,
			})
		}
	}

	return s, nil
}

// Describe renders a one-line summary for the status bar.
func (s *Summary) Describe() string {
	return fmt.Sprintf("%s, %s, %s",
		humanize.Bytes(uint64(s.Size)),
		plural(s.Parts, "part"),
		plural(len(s.Attachments), "attachment"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Save writes raw to dir as <id>.eml and returns the path.
func Save(dir, id string, raw []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(id))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// FileName maps a message id to a safe file name.
func FileName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, id)
	if name == "" {
		name = "message"
	}
	return name + ".eml"
}
