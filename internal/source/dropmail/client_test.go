package dropmail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/dropterm/internal/model"
	"github.com/nhle/dropterm/internal/source"
	"github.com/nhle/dropterm/internal/status"
	"github.com/nhle/dropterm/tests/testutil"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.APIConfig
		want string
	}{
		{
			name: "direct",
			cfg:  model.APIConfig{BaseURL: "https://dropmail.me/api/graphql/", ClientToken: "TOKEN"},
			want: "https://dropmail.me/api/graphql/TOKEN",
		},
		{
			name: "relay escapes target",
			cfg: model.APIConfig{
				BaseURL:     "https://dropmail.me/api/graphql",
				ClientToken: "TOKEN",
				RelayURL:    "https://corsproxy.io/?",
			},
			want: "https://corsproxy.io/?https%3A%2F%2Fdropmail.me%2Fapi%2Fgraphql%2FTOKEN",
		},
		{
			name: "no token",
			cfg:  model.APIConfig{BaseURL: "https://dropmail.me/api/graphql"},
			want: "https://dropmail.me/api/graphql",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Endpoint(tc.cfg))
		})
	}
}

func TestClient_RelayForwardsTarget(t *testing.T) {
	var gotTarget string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget, _ = url.QueryUnescape(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"introduceSession":{"id":"s1","addresses":[]}}}`))
	}))
	defer srv.Close()

	c := NewClient(model.APIConfig{
		BaseURL:     "https://dropmail.me/api/graphql",
		ClientToken: "TOKEN",
		RelayURL:    srv.URL + "/?",
	})

	sess, err := NewAdapter(c).IntroduceSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, "https://dropmail.me/api/graphql/TOKEN", gotTarget)
}

func TestClient_SendsQueryAndVariables(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	a := NewAdapter(NewClient(fake.APIConfig()))

	_, err := a.IntroduceAddress(context.Background(), "sess-1", "RG9tYWluOjgw")
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Query, "introduceAddress")
	assert.Equal(t, "sess-1", reqs[0].Variables["sessId"])
	assert.Equal(t, "RG9tYWluOjgw", reqs[0].Variables["domainId"])
	assert.NotEmpty(t, reqs[0].RequestID)
}

func TestClient_HTTPErrorReportsStatus(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	fake.FailNext(1, http.StatusBadGateway)

	var reported []status.State
	c := NewClient(fake.APIConfig(), WithReporter(status.ReporterFunc(
		func(s status.State, _ string) { reported = append(reported, s) },
	)))

	_, err := NewAdapter(c).Mails(context.Background(), "U2Vzc2lvbjox")
	require.Error(t, err)

	var httpErr *source.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, source.KindHTTP, source.Kind(err))
	assert.Equal(t, []status.State{status.Error}, reported)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := model.APIConfig{BaseURL: srv.URL, ClientToken: "x"}
	srv.Close()

	_, err := NewAdapter(NewClient(cfg)).IntroduceSession(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, source.KindTransport, source.Kind(err))
}

func TestClient_PayloadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>relay error</html>`},
		{"graphql errors", `{"data":null,"errors":[{"message":"session expired"}]}`},
		{"no data", `{}`},
		{"missing session object", `{"data":{"introduceSession":null}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			a := NewAdapter(NewClient(model.APIConfig{BaseURL: srv.URL}))
			_, err := a.IntroduceSession(context.Background(), "")
			require.Error(t, err)
			assert.Equal(t, source.KindPayload, source.Kind(err))
		})
	}
}

func TestAdapter_IntroduceSession(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	a := NewAdapter(NewClient(fake.APIConfig()))

	sess, err := a.IntroduceSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "U2Vzc2lvbjox", sess.ID)
	assert.Equal(t, []string{"preset@dropmail.test"}, sess.Addresses)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.NotContains(t, reqs[0].Query, "domainId")
}

func TestAdapter_IntroduceSessionPinned(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	a := NewAdapter(NewClient(fake.APIConfig()))

	_, err := a.IntroduceSession(context.Background(), "RG9tYWluOjgw")
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Query, "withAddress: true")
	assert.Equal(t, "RG9tYWluOjgw", reqs[0].Variables["domainId"])
}

func TestAdapter_Mails(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	fake.SetMails(
		testutil.Mail{ID: "m1", FromAddr: "Alice <alice@example.com>", HeaderSubject: "hi", Text: "code 1234", ReceivedAt: "2026-10-14T09:00:00Z"},
		testutil.Mail{ID: "m2", FromAddr: "bob@example.com", ReceivedAt: "garbage"},
	)
	a := NewAdapter(NewClient(fake.APIConfig()))

	mails, err := a.Mails(context.Background(), "U2Vzc2lvbjox")
	require.NoError(t, err)
	require.Len(t, mails, 2)

	assert.Equal(t, "m1", mails[0].ID)
	assert.Equal(t, "Alice <alice@example.com>", mails[0].From)
	assert.Equal(t, "code 1234", mails[0].Text)
	assert.False(t, mails[0].ReceivedAt.IsZero())
	assert.True(t, mails[1].ReceivedAt.IsZero())
}

func TestAdapter_MailsEmptyInbox(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	a := NewAdapter(NewClient(fake.APIConfig()))

	mails, err := a.Mails(context.Background(), "U2Vzc2lvbjox")
	require.NoError(t, err)
	assert.Empty(t, mails)
}

func TestAdapter_MailsUnknownSession(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	a := NewAdapter(NewClient(fake.APIConfig()))

	_, err := a.Mails(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, source.KindPayload, source.Kind(err))
}

func TestAdapter_MailsConcurrentCallersAllSucceed(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	fake.SetMails(testutil.Mail{ID: "m1"})
	a := NewAdapter(NewClient(fake.APIConfig()))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.Mails(context.Background(), "U2Vzc2lvbjox")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, fake.CountOp("session("), 4)
}

func TestAdapter_Download(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	fake.SetRaw("m1", []byte("Subject: hi\r\n\r\nbody"))
	a := NewAdapter(NewClient(fake.APIConfig()))

	raw, err := a.Download(context.Background(), fake.URL+"/download/m1")
	require.NoError(t, err)
	assert.Equal(t, "Subject: hi\r\n\r\nbody", string(raw))

	raw, err = a.Download(context.Background(), "/download/m1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	_, err = a.Download(context.Background(), "/download/missing")
	assert.Equal(t, source.KindHTTP, source.Kind(err))

	_, err = a.Download(context.Background(), "")
	assert.Error(t, err)
}

func TestAdapter_DownloadRejectsOversizedMessage(t *testing.T) {
	fake := testutil.NewFakeDropmail(t)
	fake.SetRaw("exact", []byte("0123456789"))
	fake.SetRaw("big", []byte("0123456789A"))
	a := NewAdapter(NewClient(fake.APIConfig(), WithMaxBodySize(10)))

	raw, err := a.Download(context.Background(), "/download/exact")
	require.NoError(t, err)
	assert.Len(t, raw, 10)

	raw, err = a.Download(context.Background(), "/download/big")
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
	assert.Equal(t, source.KindTransport, source.Kind(err))
}

func TestAdapter_MailsJoinedCallerSurvivesFirstCallerCancel(t *testing.T) {
	hit := make(chan struct{}, 1)
	release := make(chan struct{})
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case hit <- struct{}{}:
		default:
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"session":{"mails":[{"id":"m1"}]}}}`))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	a := NewAdapter(NewClient(model.APIConfig{BaseURL: srv.URL}))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := a.Mails(firstCtx, "s1")
		firstErr <- err
	}()
	<-hit

	type result struct {
		mails []model.Message
		err   error
	}
	second := make(chan result, 1)
	go func() {
		mails, err := a.Mails(context.Background(), "s1")
		second <- result{mails, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	err := <-firstErr
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.mails, 1)
	assert.Equal(t, "m1", res.mails[0].ID)
	assert.Equal(t, int32(1), requests.Load())
}
