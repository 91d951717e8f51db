package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI description of the API.
// - GET /swagger/index.html  -> Swagger UI loading doc.json
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
    <title>PMR Atlas API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "PMR Atlas", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "MediaItem": { "type": "object", "required": ["url", "type", "size", "alignment"], "properties": {
        "url": { "type": "string" },
        "type": { "type": "string", "enum": ["image", "video"] },
        "description": { "type": "string" },
        "size": { "type": "string", "enum": ["25", "50", "75", "100"] },
        "alignment": { "type": "string", "enum": ["before", "after", "left", "right", "center"] } } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/api/auth/register": { "post": { "summary": "Create a student account", "security": [], "responses": { "201": { "description": "tokens and user" }, "409": { "description": "email taken" } } } },
    "/api/auth/login": { "post": { "summary": "Password login", "security": [], "responses": { "200": { "description": "tokens and user" }, "401": { "description": "invalid credentials" } } } },
    "/api/auth/refresh": { "post": { "summary": "Rotate refresh token", "security": [], "responses": { "200": { "description": "new tokens" }, "401": { "description": "invalid refresh" } } } },
    "/api/auth/logout": { "post": { "summary": "Revoke access token and refresh session", "responses": { "200": { "description": "logged out" } } } },
    "/api/auth/me": { "get": { "summary": "Current user", "responses": { "200": { "description": "user" } } } },
    "/api/admin/users": { "get": { "summary": "List users (admin)", "responses": { "200": { "description": "users" }, "403": { "description": "not admin" } } } },
    "/api/admin/users/{id}/role": { "put": { "summary": "Change a user's role (admin)", "parameters": [ { "name": "role", "in": "query", "required": true, "schema": { "type": "string", "enum": ["admin", "editor", "student"] } } ], "responses": { "200": { "description": "updated" } } } },
    "/api/diseases": {
      "get": { "summary": "List diseases", "parameters": [ { "name": "category_id", "in": "query", "schema": { "type": "string" } }, { "name": "tag", "in": "query", "schema": { "type": "string" } }, { "name": "search", "in": "query", "schema": { "type": "string" } } ], "responses": { "200": { "description": "diseases" } } },
      "post": { "summary": "Create a disease (admin, editor)", "responses": { "201": { "description": "created at version 1" } } }
    },
    "/api/diseases/{id}": {
      "get": { "summary": "Get a disease", "responses": { "200": { "description": "disease" }, "404": { "description": "not found" } } },
      "put": { "summary": "Full edit (admin, editor)", "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete with reader-state cascade (admin)", "responses": { "200": { "description": "deleted" } } }
    },
    "/api/diseases/{id}/inline-save": { "put": { "summary": "Save one section in one language (admin)",
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["section_id"], "properties": { "language": { "type": "string", "default": "en" }, "section_id": { "type": "string" }, "content": { "type": "string" } } } } } },
      "responses": { "200": { "description": "message and disease" }, "403": { "description": "not admin" }, "409": { "description": "concurrent edit" } } } },
    "/api/diseases/{id}/inline-save-translate": { "put": { "summary": "Save one section and translate it (admin)",
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["section_id"], "properties": { "source_language": { "type": "string", "default": "en" }, "section_id": { "type": "string" }, "content": { "type": "string" }, "target_languages": { "type": "array", "items": { "type": "string" }, "default": ["pt", "es"] } } } } } },
      "responses": { "200": { "description": "message, disease and translations_count" } } } },
    "/api/diseases/{id}/section-media": { "put": { "summary": "Replace a section's media list (admin)",
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["section_id", "media"], "properties": { "section_id": { "type": "string" }, "media": { "type": "array", "items": { "$ref": "#/components/schemas/MediaItem" } } } } } } },
      "responses": { "200": { "description": "message, media_count and version" } } } },
    "/api/diseases/{id}/versions": { "get": { "summary": "Version history, newest first", "responses": { "200": { "description": "entries" } } } },
    "/api/translate": { "post": { "summary": "Translate free text", "responses": { "200": { "description": "translated_text" }, "503": { "description": "translation not configured" } } } },
    "/api/translate-disease/{id}": { "post": { "summary": "Translate a whole disease (admin, editor)", "parameters": [ { "name": "target_language", "in": "query", "required": true, "schema": { "type": "string", "enum": ["pt", "es"] } } ], "responses": { "200": { "description": "fields_translated" } } } },
    "/api/media": { "post": { "summary": "Upload an image or video (admin, editor)", "responses": { "201": { "description": "key and url" } } } },
    "/api/media/{key}": { "get": { "summary": "Download an uploaded file", "security": [], "responses": { "200": { "description": "file" } } } },
    "/api/bookmarks": { "get": { "summary": "List bookmarks", "responses": { "200": { "description": "bookmarks" } } }, "post": { "summary": "Bookmark a disease", "responses": { "200": { "description": "bookmark" }, "409": { "description": "already bookmarked" } } } },
    "/api/bookmarks/{disease_id}": { "delete": { "summary": "Remove a bookmark", "responses": { "200": { "description": "removed" } } } },
    "/api/notes": { "get": { "summary": "List notes", "responses": { "200": { "description": "notes" } } }, "post": { "summary": "Create or update the note on a disease", "responses": { "200": { "description": "note" } } } },
    "/api/notes/{disease_id}": { "get": { "summary": "Note on a disease, or null", "responses": { "200": { "description": "note" } } } },
    "/api/recent-views": { "get": { "summary": "Last 20 viewed diseases", "responses": { "200": { "description": "views" } } } },
    "/api/recent-views/{disease_id}": { "post": { "summary": "Record a view", "responses": { "200": { "description": "recorded" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
