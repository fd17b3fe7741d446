package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/repository"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/service"
	"github.com/inkpress/inkpress/backend/blog-service/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newRouter(t *testing.T, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	blobs, err := storage.NewDiskStorage(afero.NewMemMapFs(), "/uploads")
	require.NoError(t, err)
	svc := service.New(repository.NewMemoryRepo(), blobs, service.Options{})
	g := gin.New()
	NewPostHandler(svc, maxUpload).Register(g)
	return g
}

func do(g *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func postJSON(g *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(g, req)
}

type formFile struct {
	name string
	data []byte
}

func postForm(t *testing.T, g *gin.Engine, fields map[string][]string, file *formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(g, req)
}

func decodePost(t *testing.T, w *httptest.ResponseRecorder) post.Post {
	t.Helper()
	var p post.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestPostHandler_CRUD(t *testing.T) {
	g := newRouter(t, 0)

	w := postJSON(g, `{"title":"Hello","content":"Hello world. This is a test.","author":"Ana","tags":["go","web"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodePost(t, w)
	require.Equal(t, "1", created.ID)
	require.Equal(t, "Hello world. This is a test.", created.Excerpt)
	require.Equal(t, 1, created.ReadTime)
	require.Equal(t, []string{"go", "web"}, created.Tags)
	require.NotContains(t, w.Body.String(), "imageUrl")

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/posts/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Hello", decodePost(t, w).Title)

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []post.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = do(g, httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/posts/1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Post not found", errorOf(t, w))

	w = do(g, httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_EmptyListIsArray(t *testing.T) {
	g := newRouter(t, 0)
	w := do(g, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestPostHandler_ValidationError(t *testing.T) {
	g := newRouter(t, 0)
	w := postJSON(g, `{"title":"","content":"x","author":"y"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Title, content, and author are required", errorOf(t, w))

	w = postForm(t, g, map[string][]string{"title": {"t"}, "content": {"   "}, "author": {"a"}}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(g, `{"title":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostHandler_JSONTagsAsString(t *testing.T) {
	g := newRouter(t, 0)
	w := postJSON(g, `{"title":"t","content":"c","author":"a","tags":"[\"go\",\"go\"]"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, []string{"go", "go"}, decodePost(t, w).Tags)

	w = postJSON(g, `{"title":"t","content":"c","author":"a","tags":"go, web"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Internal server error", errorOf(t, w))
}

func TestPostHandler_MultipartWithImage(t *testing.T) {
	g := newRouter(t, 0)
	w := postForm(t, g, map[string][]string{
		"title":   {"Pic"},
		"content": {"# Title\n\nBody text"},
		"author":  {"Ana"},
		"tags":    {`["photo","travel"]`},
	}, &formFile{name: "sunset.png", data: pngBytes})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodePost(t, w)
	require.Equal(t, []string{"photo", "travel"}, p.Tags)
	require.True(t, strings.HasPrefix(p.ImageURL, "/uploads/"))
	require.True(t, strings.HasSuffix(p.ImageURL, ".png"))
	require.Equal(t, "Title\n\nBody text", p.Excerpt)

	w = do(g, httptest.NewRequest(http.MethodGet, p.ImageURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Equal(t, pngBytes, w.Body.Bytes())

	w = do(g, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_MultipartRepeatedTags(t *testing.T) {
	g := newRouter(t, 0)
	w := postForm(t, g, map[string][]string{
		"title": {"t"}, "content": {"c"}, "author": {"a"},
		"tags": {"one", "two"},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, []string{"one", "two"}, decodePost(t, w).Tags)
}

func TestPostHandler_UploadRejected(t *testing.T) {
	g := newRouter(t, 16)
	fields := map[string][]string{"title": {"t"}, "content": {"c"}, "author": {"a"}}

	w := postForm(t, g, fields, &formFile{name: "big.png", data: pngBytes})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "File too large. Maximum size is 16 bytes.", errorOf(t, w))

	g = newRouter(t, 0)
	w = postForm(t, g, fields, &formFile{name: "notes.png", data: []byte("just some text")})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Only image files are allowed", errorOf(t, w))

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestPostHandler_SearchTagsStats(t *testing.T) {
	g := newRouter(t, 0)
	require.Equal(t, http.StatusCreated, postJSON(g, `{"title":"Learning React","content":"components","author":"Ana","tags":["React"]}`).Code)
	require.Equal(t, http.StatusCreated, postJSON(g, `{"title":"Go tips","content":"goroutines","author":"Ben","tags":["Go","Backend"]}`).Code)

	var list []post.Post
	w := do(g, httptest.NewRequest(http.MethodGet, "/api/posts?search=REACT", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Learning React", list[0].Title)

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/posts?tag=Go", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Go tips", list[0].Title)

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	require.JSONEq(t, `["Backend","Go","React"]`, w.Body.String())

	w = do(g, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.JSONEq(t, `{"posts":2,"topics":3,"minutes":2}`, w.Body.String())
}
