package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the blog API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>blog-service API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the blog API.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "blog-service", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Post": {
        "type": "object",
        "properties": {
          "id": {"type":"string"}, "title": {"type":"string"}, "content": {"type":"string"},
          "excerpt": {"type":"string"}, "author": {"type":"string"},
          "publishedAt": {"type":"string","format":"date-time"}, "readTime": {"type":"integer","minimum":1},
          "tags": {"type":"array","items":{"type":"string"}}, "imageUrl": {"type":"string"}
        }
      },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/posts": {
      "get": {
        "summary": "List posts, newest first",
        "parameters": [
          {"name":"search","in":"query","schema":{"type":"string"},"description":"case-insensitive match on title, content or author"},
          {"name":"tag","in":"query","schema":{"type":"string"},"description":"exact tag"}
        ],
        "responses": { "200": { "description": "posts", "content": {"application/json": {"schema": {"type":"array","items":{"$ref":"#/components/schemas/Post"}}}} } }
      },
      "post": {
        "summary": "Create a post",
        "requestBody": { "content": {
          "multipart/form-data": { "schema": {"type":"object","required":["title","content","author"],"properties":{"title":{"type":"string"},"content":{"type":"string"},"author":{"type":"string"},"tags":{"type":"string","description":"JSON array of strings"},"image":{"type":"string","format":"binary"}}}},
          "application/json": { "schema": {"type":"object","required":["title","content","author"],"properties":{"title":{"type":"string"},"content":{"type":"string"},"author":{"type":"string"},"tags":{"type":"array","items":{"type":"string"}}}}}
        }},
        "responses": { "201": { "description": "created" }, "400": { "description": "missing fields or rejected image" } }
      }
    },
    "/api/posts/{id}": {
      "get": { "summary": "Get a post", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "post" }, "404": { "description": "Post not found" } } },
      "delete": { "summary": "Delete a post", "parameters": [{"name":"id","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "204": { "description": "deleted" }, "404": { "description": "Post not found" } } }
    },
    "/api/tags": { "get": { "summary": "Every tag in use, sorted", "responses": { "200": { "description": "tags" } } } },
    "/api/stats": { "get": { "summary": "Post, topic and reading-minute totals", "responses": { "200": { "description": "stats" } } } },
    "/uploads/{name}": { "get": { "summary": "Uploaded image bytes", "responses": { "200": { "description": "image" }, "404": { "description": "Image not found" } } } },
    "/api/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "running" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
