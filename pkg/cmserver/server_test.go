package cmserver

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/infilengine/cmpush/pkg/cmcode"
	"github.com/infilengine/cmpush/pkg/cmrepo"
	"github.com/infilengine/cmpush/pkg/cmterm"
)

type fakePublisher struct {
	result *cmrepo.Result
	err    error
	got    *cmcode.Code
}

func (p *fakePublisher) Publish(_ context.Context, code *cmcode.Code) (*cmrepo.Result, error) {
	p.got = code
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *fakePublisher) RemoteURL(_ context.Context, code *cmcode.Code) (string, error) {
	if code.GistURL != "" {
		return code.GistURL, nil
	}
	return "https://gist.github.com/abc123", nil
}

// newTestServer wires a handler around a fake publisher; the server log
// echoes into the returned buffer for assertions.
func newTestServer(t *testing.T, publisher Publisher, cfg Config) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := cmterm.NewLog("Server Thread", nil).WithEcho(&buf)
	return NewServer(log, publisher, cfg).Handler(), &buf
}

func validCode() string {
	return cmcode.Identifier + "|0|1|MissionVersion|m.lua|None|origin|mission content"
}

func post(handler http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPublishEndpointSuccess(t *testing.T) {
	publisher := &fakePublisher{
		result: &cmrepo.Result{
			Commit:  "deadbeef",
			RawURL:  "https://gist.githubusercontent.com/abc123/raw/deadbeef/m.lua",
			Version: 5,
			Tracked: true,
		},
	}
	handler, logged := newTestServer(t, publisher, Config{})

	rec := post(handler, "/publish_codeless", validCode())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != publisher.result.RawURL {
		t.Errorf("body = %q, want the raw content URL", got)
	}
	if publisher.got == nil || publisher.got.GistFile != "m.lua" {
		t.Errorf("publisher received %+v", publisher.got)
	}
	if !strings.Contains(logged.String(), "Successfully pushed mission version 5!") {
		t.Errorf("log missing success line:\n%s", logged.String())
	}
}

func TestPublishEndpointHidesURLWhenConfigured(t *testing.T) {
	publisher := &fakePublisher{result: &cmrepo.Result{RawURL: "u"}}
	handler, logged := newTestServer(t, publisher, Config{HideURL: true})

	post(handler, "/publish_codeless", validCode())

	if strings.Contains(logged.String(), "gist.github.com/abc123") {
		t.Errorf("log leaked the gist URL:\n%s", logged.String())
	}
	if !strings.Contains(logged.String(), strings.Repeat("*", len("https://gist.github.com/abc123"))) {
		t.Errorf("log missing masked URL:\n%s", logged.String())
	}
}

func TestPublishEndpointParseFailureIsSoft(t *testing.T) {
	publisher := &fakePublisher{result: &cmrepo.Result{}}
	handler, _ := newTestServer(t, publisher, Config{})

	rec := post(handler, "/publish_codeless", "not a mission code")

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want soft 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "while parsing mission code") {
		t.Errorf("body = %q, want parse error text", rec.Body.String())
	}
	if publisher.got != nil {
		t.Error("publisher invoked for unparseable body")
	}
}

func TestPublishEndpointPublishFailureIsSoft(t *testing.T) {
	publisher := &fakePublisher{err: context.DeadlineExceeded}
	handler, _ := newTestServer(t, publisher, Config{})

	rec := post(handler, "/publish_codeless", validCode())

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want soft 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "while publishing mission code") {
		t.Errorf("body = %q, want publish error text", rec.Body.String())
	}
}

func TestPublishEndpointRejectsNonUTF8(t *testing.T) {
	handler, _ := newTestServer(t, &fakePublisher{result: &cmrepo.Result{}}, Config{})

	rec := post(handler, "/publish_codeless", string([]byte{0xff, 0xfe, 0xfd}))

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "converting request body") {
		t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestUnknownEndpointRejected(t *testing.T) {
	handler, _ := newTestServer(t, &fakePublisher{result: &cmrepo.Result{}}, Config{})

	rec := post(handler, "/other", validCode())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWrongMethodRejected(t *testing.T) {
	handler, _ := newTestServer(t, &fakePublisher{result: &cmrepo.Result{}}, Config{})

	req := httptest.NewRequest(http.MethodGet, "/publish_codeless", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOnPublishedCallback(t *testing.T) {
	publisher := &fakePublisher{result: &cmrepo.Result{RawURL: "url", Version: 2, Tracked: true}}
	var buf bytes.Buffer
	log := cmterm.NewLog("Server Thread", nil).WithEcho(&buf)
	srv := NewServer(log, publisher, Config{})

	var published *cmrepo.Result
	srv.OnPublished = func(r *cmrepo.Result) { published = r }

	post(srv.Handler(), "/publish_codeless", validCode())

	if published == nil || published.Version != 2 {
		t.Errorf("OnPublished got %+v", published)
	}
}
