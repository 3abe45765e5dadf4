package web

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	t      *testing.T
	db     *sql.DB
	server *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)

	router, err := NewRouter(database, testJWTSecret, false)
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{t: t, db: database, server: server, client: client}
}

// signIn creates an account and logs the client in.
func (e *testEnv) signIn(username string) *model.User {
	e.t.Helper()
	hash, err := auth.HashPassword("password1")
	require.NoError(e.t, err)
	user, err := store.CreateUser(context.Background(), e.db, username, hash)
	require.NoError(e.t, err)

	resp := e.post("/auth/login", url.Values{"username": {username}, "password": {"password1"}})
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(e.t, "/item/", resp.Header.Get("Location"))
	return user
}

func (e *testEnv) get(path string) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, string(body)
}

func (e *testEnv) post(path string, form url.Values) *http.Response {
	e.t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(e.t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func (e *testEnv) postForm(path string, form url.Values) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, string(body)
}

func (e *testEnv) createItem(name string) *model.Item {
	e.t.Helper()
	item, err := store.CreateItem(context.Background(), e.db, name, "")
	require.NoError(e.t, err)
	return item
}

func path(id int64, action string) string {
	return "/item/" + strconv.FormatInt(id, 10) + "/" + action
}

func TestHomeIsPublic(t *testing.T) {
	e := newTestEnv(t)

	for _, p := range []string{"/", "/home"} {
		resp, body := e.get(p)
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
		assert.Contains(t, body, "Log in", p)
	}
}

func TestItemRoutesRequireLogin(t *testing.T) {
	e := newTestEnv(t)
	item := e.createItem("Stapler")

	for _, p := range []string{"/item/", "/item/my_status", "/item/create_item", path(item.ID, "detail_item"), path(item.ID, "lend_item")} {
		resp, _ := e.get(p)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, p)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), p)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")

	resp, body := e.postForm("/auth/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Incorrect username or password.")

	resp, body = e.postForm("/auth/login", url.Values{"username": {"mallory"}, "password": {"password1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Incorrect username or password.")
}

func TestRegisterThenLogin(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.postForm("/auth/register", url.Values{"username": {"bob"}, "password": {"short"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "at least 8 characters")

	resp = e.post("/auth/register", url.Values{"username": {"bob"}, "password": {"longenough"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	_, body = e.get("/auth/login")
	assert.Contains(t, body, "Registration complete.")

	resp = e.post("/auth/login", url.Values{"username": {"bob"}, "password": {"longenough"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestCreateItemFlow(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")

	resp, body := e.postForm("/item/create_item", url.Values{"name": {"  "}, "detail": {"kept"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Item name is required.")
	assert.Contains(t, body, "kept", "form values are echoed back")

	items, err := store.ListItems(context.Background(), e.db)
	require.NoError(t, err)
	assert.Empty(t, items)

	resp = e.post("/item/create_item", url.Values{"name": {"Stapler"}, "detail": {"red"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/item/", resp.Header.Get("Location"))

	resp, body = e.get("/item/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Item Stapler added.")
	assert.Contains(t, body, "Stapler")

	_, body = e.get("/item/")
	assert.NotContains(t, body, "Item Stapler added.", "flash is shown once")
}

func TestUnknownItemIs404(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")

	for _, p := range []string{path(999, "detail_item"), path(999, "update_item"), "/item/abc/detail_item"} {
		resp, body := e.get(p)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
		assert.Contains(t, body, NoSuchItem, p)
	}

	resp := e.post(path(999, "delete_item"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateItem(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")
	item := e.createItem("Stapler")

	resp, body := e.postForm(path(item.ID, "update_item"), url.Values{"name": {""}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Item name is required.")

	resp = e.post(path(item.ID, "update_item"), url.Values{"name": {"Big stapler"}, "detail": {"blue"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	got, err := store.GetItem(context.Background(), e.db, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big stapler", got.Name)
	assert.Equal(t, "blue", got.Detail)
}

func TestLendAndReturnFlow(t *testing.T) {
	e := newTestEnv(t)
	alice := e.signIn("alice")
	item := e.createItem("Stapler")
	ctx := context.Background()

	resp, body := e.postForm(path(item.ID, "lend_item"), url.Values{"return_schedule": {""}, "note": {"exam"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please enter the scheduled return date.")

	unchanged, err := store.GetItem(ctx, e.db, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, unchanged)

	resp = e.post(path(item.ID, "lend_item"), url.Values{"return_schedule": {"2030-01-10"}, "note": {"exam"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/item/", resp.Header.Get("Location"))

	lent, err := store.GetItem(ctx, e.db, item.ID)
	require.NoError(t, err)
	require.NotNil(t, lent.BorrowerID)
	assert.Equal(t, alice.ID, *lent.BorrowerID)

	_, body = e.get("/item/my_status")
	assert.Contains(t, body, "Stapler")
	assert.Contains(t, body, "2030-01-10")

	resp = e.post(path(item.ID, "return_item"), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/item/my_status", resp.Header.Get("Location"))

	_, body = e.get("/item/my_status")
	assert.Contains(t, body, "Item Stapler returned.")
	assert.Contains(t, body, "You have not borrowed anything.")
}

func TestDeleteItem(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")
	item := e.createItem("Stapler")

	resp, body := e.get(path(item.ID, "delete_item"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Delete Stapler?")

	resp = e.post(path(item.ID, "delete_item"), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = e.get(path(item.ID, "detail_item"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLogoutRevokesSession(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")

	serverURL, err := url.Parse(e.server.URL)
	require.NoError(t, err)
	var token string
	for _, c := range e.client.Jar.Cookies(serverURL) {
		if c.Name == tokenCookie {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	resp := e.post("/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	req, err := http.NewRequest("GET", e.server.URL+"/item/", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
	resp, err = e.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
}

func TestItemPhotoUpload(t *testing.T) {
	e := newTestEnv(t)
	e.signIn("alice")
	item := e.createItem("Stapler")

	resp, _ := e.get(path(item.ID, "photo"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		img.Set(x, x%200, color.RGBA{R: 200, A: 255})
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("photo", "stapler.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err = e.client.Post(e.server.URL+path(item.ID, "photo"), mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, path(item.ID, "detail_item"), resp.Header.Get("Location"))

	resp, data := e.get(path(item.ID, "photo"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, data)

	resp, thumb := e.get(path(item.ID, "photo") + "?size=thumb")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Less(t, len(thumb), len(data))

	_, page := e.get(path(item.ID, "detail_item"))
	assert.Contains(t, page, "Photo saved.")
	assert.True(t, strings.Contains(page, `src="/item/`+strconv.FormatInt(item.ID, 10)+`/photo"`))
}

func TestFlashRoundTrip(t *testing.T) {
	s := &Server{}

	rec := httptest.NewRecorder()
	s.setFlash(rec, flashError, "Nope | not | today")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()

	f, ok := s.popFlash(rec, req)
	require.True(t, ok)
	assert.Equal(t, flashError, f.Kind)
	assert.Equal(t, "Nope | not | today", f.Message)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestFlashIgnoresGarbage(t *testing.T) {
	s := &Server{}
	for _, v := range []string{"nonsense", "info|aGk", "error|!!!"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: flashCookie, Value: v})
		_, ok := s.popFlash(httptest.NewRecorder(), req)
		assert.False(t, ok, v)
	}
}
