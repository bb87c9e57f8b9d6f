package folio

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/taskflow"
)

const testPassword = "correct horse"

func newTestApp(t *testing.T, mutate func(*Config), opts ...Option) *App {
	t.Helper()
	cfg := Config{
		Site:     SiteConfig{URL: "https://example.com", Description: "Notes and projects"},
		Database: DatabaseConfig{Path: filepath.Join(t.TempDir(), "folio.db"), Seed: true},
		Admin:    AdminConfig{Password: testPassword, SessionSecret: "0123456789abcdef0123456789abcdef"},
		Contact:  ContactConfig{SendDelay: time.Millisecond, ResetAfter: time.Second},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	app := New(cfg, append([]Option{WithLogger(zap.NewNop())}, opts...)...)
	require.NoError(t, app.Setup())
	t.Cleanup(func() { app.Close() })
	return app
}

// testClient keeps cookies between requests and never follows redirects.
type testClient struct {
	t   *testing.T
	srv *httptest.Server
	c   *http.Client
}

func newTestClient(t *testing.T, app *App) *testClient {
	t.Helper()
	srv := httptest.NewServer(app.Echo)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, srv: srv, c: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (tc *testClient) do(method, path string, form url.Values, header http.Header) (*http.Response, string) {
	tc.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, tc.srv.URL+path, body)
	require.NoError(tc.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	res, err := tc.c.Do(req)
	require.NoError(tc.t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(tc.t, err)
	return res, string(b)
}

func (tc *testClient) get(path string) (*http.Response, string) {
	return tc.do(http.MethodGet, path, nil, nil)
}

// csrf returns the token cookie, fetching a page first when none is set yet.
func (tc *testClient) csrf() string {
	tc.t.Helper()
	u, _ := url.Parse(tc.srv.URL)
	find := func() string {
		for _, c := range tc.c.Jar.Cookies(u) {
			if c.Name == "_csrf" {
				return c.Value
			}
		}
		return ""
	}
	if tok := find(); tok != "" {
		return tok
	}
	tc.get("/en/contact/")
	tok := find()
	require.NotEmpty(tc.t, tok, "csrf cookie not set")
	return tok
}

// post submits form with the CSRF token filled in.
func (tc *testClient) post(path string, form url.Values, header http.Header) (*http.Response, string) {
	tc.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("_csrf", tc.csrf())
	return tc.do(http.MethodPost, path, form, header)
}

func (tc *testClient) login() {
	tc.t.Helper()
	res, _ := tc.post("/admin/login/", url.Values{"password": {testPassword}}, nil)
	require.Equal(tc.t, http.StatusSeeOther, res.StatusCode)
}

func htmx() http.Header {
	return http.Header{"Hx-Request": {"true"}}
}

func TestUnlocalizedPathsRedirect(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	tests := []struct {
		name, path, acceptLanguage, want string
	}{
		{"root without header", "/", "", "/en/"},
		{"french visitor", "/blog/?category=guitar", "fr-FR,fr;q=0.9,en;q=0.8", "/fr/blog/?category=guitar"},
		{"japanese visitor", "/about/", "ja", "/ja/about/"},
		{"unsupported language", "/projects/", "pt-BR", "/en/projects/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.acceptLanguage != "" {
				h.Set("Accept-Language", tt.acceptLanguage)
			}
			res, _ := tc.do(http.MethodGet, tt.path, nil, h)
			assert.Equal(t, http.StatusTemporaryRedirect, res.StatusCode)
			assert.Equal(t, tt.want, res.Header.Get("Location"))
		})
	}
}

func TestDefaultLocaleFromConfig(t *testing.T) {
	app := newTestApp(t, func(c *Config) { c.Locale.Default = "vi" })
	tc := newTestClient(t, app)
	res, _ := tc.get("/")
	assert.Equal(t, "/vi/", res.Header.Get("Location"))

	res, _ = tc.do(http.MethodGet, "/blog/", nil, http.Header{"Accept-Language": {"zh-CN"}})
	assert.Equal(t, http.StatusTemporaryRedirect, res.StatusCode)
	assert.Equal(t, "/vi/blog/", res.Header.Get("Location"), "unmatched languages fall back to the configured default")
}

func TestUppercaseLocaleRedirectsToCanonical(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))
	res, _ := tc.get("/EN/blog/?category=guitar")
	assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	assert.Equal(t, "/en/blog/?category=guitar", res.Header.Get("Location"))

	res, _ = tc.get("/Fr/")
	assert.Equal(t, "/fr/", res.Header.Get("Location"))
}

func TestNonLocaleSegmentsAreNotPages(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	for path, want := range map[string]string{
		"/administrator/": "/en/administrator/",
		"/taskflowx/":     "/en/taskflowx/",
		"/metricsfoo":     "/en/metricsfoo",
		"/publicity/":     "/en/publicity/",
	} {
		res, _ := tc.get(path)
		assert.Equal(t, http.StatusTemporaryRedirect, res.StatusCode, path)
		assert.Equal(t, want, res.Header.Get("Location"), path)
	}

	res, body := tc.get("/en/administrator/")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, body, "Page not found")

	// An exempt segment must not be taken for a locale by the /:locale routes.
	res, _ = tc.get("/api/blog/")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestLocalizedPagesRender(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))
	for _, path := range []string{"/en/", "/de/about/", "/es/blog/", "/fr/projects/", "/ja/contact/"} {
		res, body := tc.get(path)
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.Contains(t, body, `<html lang="`+path[1:3]+`">`, path)
	}
}

func TestBlogFilter(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	res, body := tc.get("/en/blog/?category=guitar")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Learning Guitar")
	assert.NotContains(t, body, "Getting Started with Next.js 15")

	res, body = tc.do(http.MethodGet, "/en/blog/?category=all&q=HABITS&partial=results", nil, htmx())
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "Building Healthy Habits")
	assert.NotContains(t, body, "Learning Guitar")

	_, body = tc.do(http.MethodGet, "/en/blog/?category=guitar&q=nextjs&partial=results", nil, htmx())
	assert.Contains(t, body, "No posts found matching your criteria.")
}

func TestPostPageAndNotFound(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	res, body := tc.get("/en/blog/my-calisthenics-journey/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "My Calisthenics Journey")

	res, body = tc.get("/en/blog/does-not-exist/")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, body, "Page not found")

	res, _ = tc.get("/en/about")
	assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
	assert.Equal(t, "/en/about/", res.Header.Get("Location"))
}

type captureSender struct {
	mu   sync.Mutex
	msgs []contact.Message
}

func (s *captureSender) Send(_ context.Context, msg contact.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func validContactForm() url.Values {
	return url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"ada@example.com"},
		"subject": {"Engines"},
		"message": {"I would like to talk about your analytical engine."},
	}
}

func TestContactSubmitSuccess(t *testing.T) {
	sender := &captureSender{}
	app := newTestApp(t, nil, WithContactSender(sender))
	tc := newTestClient(t, app)

	res, body := tc.post("/en/contact/", validContactForm(), htmx())
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Your message has been sent successfully.")
	assert.Contains(t, body, `hx-trigger="load delay:1000ms"`)
	assert.NotContains(t, body, "<html")

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "ada@example.com", sender.msgs[0].Email)

	stored, err := app.Store.ListContactMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, sender.msgs[0].ID, stored[0].ID)
}

func TestContactSubmitValidation(t *testing.T) {
	sender := &captureSender{}
	tc := newTestClient(t, newTestApp(t, nil, WithContactSender(sender)))

	form := validContactForm()
	form.Set("email", "not-an-email")
	form.Set("subject", "  ")
	res, body := tc.post("/en/contact/", form, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "Please enter a valid email address.")
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, `value="Ada Lovelace"`)
	assert.Empty(t, sender.msgs)
}

func TestContactSubmitFailureShowsError(t *testing.T) {
	failing := contact.SenderFunc(func(context.Context, contact.Message) error {
		return io.ErrUnexpectedEOF
	})
	tc := newTestClient(t, newTestApp(t, nil, WithContactSender(failing)))

	res, body := tc.post("/en/contact/", validContactForm(), htmx())
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Something went wrong. Please try again later.")
}

func TestContactSubmitThrottled(t *testing.T) {
	app := newTestApp(t, func(c *Config) {
		c.Contact.RatePerMinute = 1
		c.Contact.Burst = 2
	}, WithContactSender(&captureSender{}))
	tc := newTestClient(t, app)

	for i := 0; i < 2; i++ {
		res, _ := tc.post("/en/contact/", validContactForm(), htmx())
		require.Equal(t, http.StatusOK, res.StatusCode)
	}
	res, _ := tc.post("/en/contact/", validContactForm(), htmx())
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)

	_, metrics := tc.get("/metrics")
	assert.Contains(t, metrics, `folio_contact_submissions_total{result="throttled"} 1`)
	assert.Contains(t, metrics, `folio_contact_submissions_total{result="success"} 2`)
}

func TestTaskMutationsRequireAdmin(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	res, _ := tc.post("/taskflow/tasks/", url.Values{"title": {"Sneaky"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = tc.do(http.MethodPost, "/taskflow/tasks/", url.Values{"title": {"No token"}}, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	_, body := tc.get("/api/taskflow/tasks")
	assert.JSONEq(t, `[]`, body)
}

func TestTaskLifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	tc := newTestClient(t, app)
	tc.login()
	jsonAccept := http.Header{"Accept": {"application/json"}}

	res, body := tc.post("/taskflow/tasks/", url.Values{
		"title":    {"Record a demo"},
		"priority": {"high"},
	}, jsonAccept)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	var created taskflow.Task
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, taskflow.StatusTodo, created.Status)
	assert.Equal(t, taskflow.PriorityHigh, created.Priority)

	res, body = tc.post("/taskflow/tasks/"+created.ID+"/status/", url.Values{"status": {"done"}}, htmx())
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Record a demo")
	assert.NotContains(t, body, "<html")

	res, _ = tc.post("/taskflow/tasks/"+created.ID+"/status/", url.Values{"status": {"archived"}}, jsonAccept)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = tc.post("/taskflow/tasks/", url.Values{"title": {"   "}}, jsonAccept)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, body = tc.get("/api/taskflow/tasks")
	var tasks []taskflow.Task
	require.NoError(t, json.Unmarshal([]byte(body), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, taskflow.StatusDone, tasks[0].Status)

	res, _ = tc.do(http.MethodDelete, "/taskflow/tasks/"+created.ID+"/", nil,
		http.Header{"Accept": {"application/json"}, "X-Csrf-Token": {tc.csrf()}})
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = tc.do(http.MethodDelete, "/taskflow/tasks/"+created.ID+"/", nil,
		http.Header{"Accept": {"application/json"}, "X-Csrf-Token": {tc.csrf()}})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestTaskFlowWebSocketStreamsEvents(t *testing.T) {
	broker := taskflow.NewMemoryBroker(8)
	app := newTestApp(t, nil, WithBroker(broker))
	tc := newTestClient(t, app)

	wsURL := "ws" + strings.TrimPrefix(tc.srv.URL, "http") + "/taskflow/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return broker.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	task, err := app.Board.Create(context.Background(), taskflow.NewTask{Title: "Tune guitar"})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt taskflow.Event
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, taskflow.EventCreated, evt.Type)
	assert.Equal(t, task.ID, evt.Task.ID)

	conn.Close()
	require.Eventually(t, func() bool { return broker.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAdminLogin(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	_, body := tc.get("/admin/")
	assert.Contains(t, body, `action="/admin/login/"`)

	res, body := tc.post("/admin/login/", url.Values{"password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, `action="/admin/login/"`)

	res, _ = tc.get("/admin/messages/")
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/", res.Header.Get("Location"))

	tc.login()
	res, body = tc.get("/admin/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Getting Started with Next.js 15")
}

func TestAdminPostSaveAndRename(t *testing.T) {
	app := newTestApp(t, nil)
	tc := newTestClient(t, app)
	tc.login()

	// Warm the cache so the save has to invalidate it.
	tc.get("/en/blog/")

	form := url.Values{
		"title":     {"Fingerstyle Basics"},
		"excerpt":   {"Thumb on the bass, fingers on the melody."},
		"content":   {"## Posture\n\nRelax the wrist."},
		"category":  {"guitar"},
		"tags":      {"Guitar, fingerstyle"},
		"date":      {"2024-03-01"},
		"published": {"on"},
	}
	res, _ := tc.post("/admin/post/save/", form, nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	res, body := tc.get("/en/blog/fingerstyle-basics/")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `<h2 id="posture">Posture</h2>`)

	form.Set("original_slug", "fingerstyle-basics")
	form.Set("slug", "fingerstyle-101")
	res, _ = tc.post("/admin/post/save/", form, nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	res, _ = tc.get("/en/blog/fingerstyle-basics/")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res, _ = tc.get("/en/blog/fingerstyle-101/")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	form.Set("category", "cooking")
	res, body = tc.post("/admin/post/save/", form, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "Choose one of the listed categories.")
}

func TestFeedHealthAndMetrics(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))

	res, body := tc.get("/feed.xml")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, body, "<language>en</language>")
	assert.Contains(t, body, "https://example.com/en/blog/getting-started-with-nextjs-15/")

	res, body = tc.get("/healthz")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	_, body = tc.get("/metrics")
	assert.Contains(t, body, `folio_http_requests_total{method="GET",route="/feed.xml",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsCompressedOnce(t *testing.T) {
	app := newTestApp(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(plain), "# HELP "), "body after one gunzip: %q", string(plain[:min(len(plain), 16)]))
}

func TestStaticAssetsCached(t *testing.T) {
	tc := newTestClient(t, newTestApp(t, nil))
	res, _ := tc.get("/public/css/site.css")
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "public, max-age=31536000, immutable", res.Header.Get("Cache-Control"))

	res, _ = tc.get("/en/contact/")
	assert.Equal(t, "no-store", res.Header.Get("Cache-Control"))
}
