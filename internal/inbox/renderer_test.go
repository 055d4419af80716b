package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dropterm/internal/model"
)

// recordingSink counts placeholder and replace calls.
type recordingSink struct {
	empty      bool
	emptyCalls int
	replaces   [][]Row
}

func (s *recordingSink) ShowEmpty() {
	s.empty = true
	s.emptyCalls++
}

func (s *recordingSink) ShowingEmpty() bool { return s.empty }

func (s *recordingSink) Replace(rows []Row) {
	s.empty = false
	s.replaces = append(s.replaces, rows)
}

func TestSenderName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice <alice@example.com>", "Alice"},
		{`"Bob Smith" <bob@example.com>`, "Bob Smith"},
		{"  Carol   <c@example.com>", "Carol"},
		{"<noreply@example.com>", UnknownSender},
		{"noreply@example.com", UnknownSender},
		{"", UnknownSender},
		{"Service Desk", "Service Desk"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, SenderName(tc.in), "SenderName(%q)", tc.in)
	}
}

func TestSubjectAndBodyDefaults(t *testing.T) {
	assert.Equal(t, NoSubject, SubjectOrDefault(""))
	assert.Equal(t, NoSubject, SubjectOrDefault("   "))
	assert.Equal(t, "Welcome", SubjectOrDefault("Welcome"))
	assert.Equal(t, NoBody, BodyOrDefault(""))
	assert.Equal(t, "hi", BodyOrDefault("hi"))
}

func TestRender_ReversesOrder(t *testing.T) {
	r := NewRenderer(0)
	sink := &recordingSink{}

	res := r.Render([]model.Message{{ID: "old"}, {ID: "mid"}, {ID: "new"}}, sink)

	require.Len(t, sink.replaces, 1)
	var ids []string
	for _, row := range sink.replaces[0] {
		ids = append(ids, row.Message.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
	assert.Equal(t, 3, res.NewCount())
}

func TestRender_EmptyPlaceholderIdempotent(t *testing.T) {
	r := NewRenderer(0)
	sink := &recordingSink{}

	r.Render(nil, sink)
	r.Render([]model.Message{}, sink)

	assert.Equal(t, 1, sink.emptyCalls)
	assert.True(t, sink.ShowingEmpty())
	assert.Empty(t, sink.replaces)
}

func TestRender_EmptyAfterMessagesShowsPlaceholder(t *testing.T) {
	r := NewRenderer(0)
	sink := &recordingSink{}

	r.Render([]model.Message{{ID: "m1"}}, sink)
	r.Render(nil, sink)

	assert.Equal(t, 1, sink.emptyCalls)
}

func TestRender_NoDuplicatePulseForSeenIDs(t *testing.T) {
	r := NewRenderer(0)
	sink := &recordingSink{}

	first := r.Render([]model.Message{{ID: "m1"}}, sink)
	assert.Equal(t, []string{"m1"}, first.NewIDs)

	second := r.Render([]model.Message{{ID: "m1"}}, sink)
	assert.Zero(t, second.NewCount())

	third := r.Render([]model.Message{{ID: "m1"}, {ID: "m2"}}, sink)
	assert.Equal(t, []string{"m2"}, third.NewIDs)
	assert.Len(t, sink.replaces, 3)
}

func TestRender_PasscodeAndMarkers(t *testing.T) {
	r := NewRenderer(0)
	sink := &recordingSink{}

	res := r.Render([]model.Message{
		{ID: "a", From: "Bank <no@bank.test>", Subject: "Login", Text: "Your code is 482913, expires in 10 minutes"},
		{ID: "b", From: "Shop <s@shop.test>", Subject: "Code 7788", Text: ""},
		{ID: "c", From: "News <n@news.test>", Subject: "Weekly", Text: "Nothing numeric here"},
		{ID: "d", Subject: "", HTML: "<p>Use <b>5566</b> to sign in</p>"},
	}, sink)

	byID := map[string]Row{}
	for _, row := range res.Rows {
		byID[row.Message.ID] = row
	}

	assert.Equal(t, "482913", byID["a"].Code)
	assert.Equal(t, "7788", byID["b"].Code, "empty body falls back to subject")
	assert.False(t, byID["c"].HasCode())
	assert.Equal(t, "5566", byID["d"].Code, "html body is used when text is empty")
	assert.Equal(t, NoSubject, byID["d"].Subject)
	assert.Equal(t, UnknownSender, byID["d"].Sender)
}

func TestRows_DoesNotTouchSeenSet(t *testing.T) {
	r := NewRenderer(0)
	rows := Rows([]model.Message{{ID: "m1"}})
	assert.Len(t, rows, 1)
	assert.Zero(t, r.Seen().Len())
}
