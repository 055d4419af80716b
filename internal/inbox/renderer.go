package inbox

import (
	"strings"

	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/otp"
)

// Placeholders shown in place of absent fields.
const (
	UnknownSender  = "Unknown"
	NoSubject      = "(No Subject)"
	NoBody         = "NO DATA CONTENT."
	EmptyInboxText = "> Buffer empty.\n> Listening..."
)

// Row is one message prepared for display. Fields hold raw derived
// values; each sink escapes them for its own medium.
type Row struct {
	Message model.Message
	Sender  string
	Subject string
	Body    string
	Code    string
}

// HasCode reports whether a passcode was found for the row.
func (r Row) HasCode() bool { return r.Code != "" }

// Sink displays the rendered inbox.
type Sink interface {
	// ShowEmpty displays the empty/listening placeholder.
	ShowEmpty()
	// ShowingEmpty reports whether the placeholder is displayed.
	ShowingEmpty() bool
	// Replace clears the display and shows rows in order.
	Replace(rows []Row)
}

// Result summarizes one Render call.
type Result struct {
	Rows   []Row
	NewIDs []string
}

// NewCount returns how many messages were seen for the first time.
func (r Result) NewCount() int { return len(r.NewIDs) }

// Renderer turns message lists into rows and tracks which identifiers
// have already been shown. It is not safe for concurrent use.
type Renderer struct {
	seen *SeenSet
}

// NewRenderer creates a renderer whose seen-set holds at most seenLimit
// identifiers (zero for unbounded).
func NewRenderer(seenLimit int) *Renderer {
	return &Renderer{seen: NewSeenSet(seenLimit)}
}

// Seen exposes the seen-set.
func (r *Renderer) Seen() *SeenSet { return r.seen }

// Render displays mails on sink, newest first, and records identifiers
// not seen before. The display is replaced in full on every call.
func (r *Renderer) Render(mails []model.Message, sink Sink) Result {
	rows := Rows(mails)
	if len(rows) == 0 {
		if !sink.ShowingEmpty() {
			sink.ShowEmpty()
		}
		return Result{}
	}

	sink.Replace(rows)

	r.seen.BeginCycle()
	var fresh []string
	for _, row := range rows {
		if r.seen.Mark(row.Message.ID) {
			fresh = append(fresh, row.Message.ID)
		}
	}
	r.seen.Evict()

	return Result{Rows: rows, NewIDs: fresh}
}

// Rows prepares mails for display without touching any seen-set. The
// upstream lists oldest first, so the order is reversed.
func Rows(mails []model.Message) []Row {
	rows := make([]Row, 0, len(mails))
	for i := len(mails) - 1; i >= 0; i-- {
		rows = append(rows, NewRow(mails[i]))
	}
	return rows
}

// NewRow derives the display fields of one message.
func NewRow(m model.Message) Row {
	body := BodyText(m)
	code, _ := otp.FindIn(body, m.Subject)
	return Row{
		Message: m,
		Sender:  SenderName(m.From),
		Subject: SubjectOrDefault(m.Subject),
		Body:    body,
		Code:    code,
	}
}

// SenderName returns the display name in a From header: the text before
// the first '<', trimmed. A header without a display name, such as a
// bare address or "<a@b.c>", yields UnknownSender.
func SenderName(from string) string {
	name := from
	if i := strings.IndexByte(from, '<'); i >= 0 {
		name = from[:i]
	} else if strings.Contains(from, "@") {
		name = ""
	}
	name = strings.Trim(strings.TrimSpace(name), `"`)
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownSender
	}
	return name
}

// SubjectOrDefault returns subject, or NoSubject when it is blank.
func SubjectOrDefault(subject string) string {
	if strings.TrimSpace(subject) == "" {
		return NoSubject
	}
	return subject
}

// BodyOrDefault returns body, or NoBody when it is empty.
func BodyOrDefault(body string) string {
	if strings.TrimSpace(body) == "" {
		return NoBody
	}
	return body
}
