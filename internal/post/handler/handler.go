package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/service"
	"github.com/inkpress/inkpress/backend/blog-service/internal/storage"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
)

// DefaultMaxUpload is the image size limit when none is configured.
const DefaultMaxUpload = 5 << 20

const (
	// room for the text fields around the image in a multipart body
	formOverhead    = 1 << 20
	multipartMemory = 8 << 20
)

// PostHandler serves the post API and uploaded images.
type PostHandler struct {
	svc       service.Service
	maxUpload int64
}

func NewPostHandler(svc service.Service, maxUpload int64) *PostHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &PostHandler{svc: svc, maxUpload: maxUpload}
}

// Register mounts the API under /api and images under /uploads.
func (h *PostHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/posts", h.list)
	api.POST("/posts", h.create)
	api.GET("/posts/:id", h.get)
	api.DELETE("/posts/:id", h.delete)
	api.GET("/tags", h.tags)
	api.GET("/stats", h.stats)

	r.GET("/uploads/:name", h.image)
}

type createRequest struct {
	Title   string       `json:"title"`
	Content string       `json:"content"`
	Author  string       `json:"author"`
	Tags    post.TagList `json:"tags"`
}

func (h *PostHandler) list(c *gin.Context) {
	q := post.Query{Search: c.Query("search"), Tag: c.Query("tag")}
	posts, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) create(c *gin.Context) {
	var (
		in  post.Input
		img *service.Upload
	)
	switch c.ContentType() {
	case "multipart/form-data":
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+formOverhead)
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			h.badForm(c, err)
			return
		}
		up, done, err := readImage(c, h.maxUpload)
		if err != nil {
			h.fail(c, err)
			return
		}
		defer done()
		in, img = formInput(c), up
	case "application/x-www-form-urlencoded":
		if err := c.Request.ParseForm(); err != nil {
			h.badForm(c, err)
			return
		}
		in = formInput(c)
	default:
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if errors.Is(err, post.ErrMalformedTags) {
				h.fail(c, err)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		in = post.Input{Title: req.Title, Content: req.Content, Author: req.Author, Tags: req.Tags}
	}

	p, err := h.svc.Create(c.Request.Context(), in, img)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// formInput reads text fields. A single "tags" value is the serialized
// JSON form; repeated "tags" (or "tags[]") values are the native list.
func formInput(c *gin.Context) post.Input {
	in := post.Input{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Author:  c.PostForm("author"),
	}
	tags := c.PostFormArray("tags")
	switch {
	case len(tags) == 1:
		in.TagsJSON = tags[0]
	case len(tags) > 1:
		in.Tags = tags
	default:
		in.Tags = c.PostFormArray("tags[]")
	}
	return in
}

func (h *PostHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) tags(c *gin.Context) {
	tags, err := h.svc.Tags(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *PostHandler) stats(c *gin.Context) {
	s, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *PostHandler) image(c *gin.Context) {
	rc, info, err := h.svc.OpenImage(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		h.fail(c, err)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, rc, nil)
}

func (h *PostHandler) badForm(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
		c.JSON(http.StatusBadRequest, gin.H{"error": tooLarge(h.maxUpload)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form data"})
}

// fail maps err onto a status. Expected conditions carry their own
// message; anything else is logged and reported generically.
func (h *PostHandler) fail(c *gin.Context, err error) {
	switch {
	case post.IsValidation(err), post.IsUpload(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, post.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
