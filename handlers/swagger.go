package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the admin API mounted at apiBase.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine, apiBase string) {
	doc := []byte(strings.ReplaceAll(swaggerJSON, "{{base}}", strings.TrimRight(apiBase, "/")))

	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>blogdeck admin API</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "blogdeck admin", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Changes": { "type": "object", "additionalProperties": true, "properties": { "tags": {"type":"array","items":{"type":"string"}}, "categories": {"type":"array","items":{"type":"string"}}, "source": {"type":"string"} } },
      "UpdateBody": { "type": "object", "properties": { "_content": {"type":"string"}, "meta": {"type":"object","additionalProperties":true}, "update": {"$ref":"#/components/schemas/Changes"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "{{base}}/login": {
      "post": { "summary": "Admin password login", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "accessToken, expiresIn, user" }, "401": { "description": "authentication failed" } } }
    },
    "{{base}}/logout": {
      "post": { "summary": "Revoke the bearer token's session", "responses": { "200": { "description": "logged out" } } }
    },
    "{{base}}/tags-categories-and-metadata": { "get": { "summary": "Taxonomy and metadata keys", "responses": { "200": { "description": "categories, tags, metadata" } } } },
    "{{base}}/posts/list": { "get": { "summary": "List posts", "responses": { "200": { "description": "posts" } } } },
    "{{base}}/posts/new": { "post": { "summary": "Create a draft", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"}}}}}}, "responses": { "200": { "description": "created post" }, "409": { "description": "file exists" } } } },
    "{{base}}/posts/{id}": {
      "get": { "summary": "Get post", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } },
      "post": { "summary": "Update post", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/UpdateBody"}}}}, "responses": { "200": { "description": "post and tagsCategoriesAndMetadata" }, "500": { "description": "stage failure", "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Error"}}}} } }
    },
    "{{base}}/posts/{id}/publish": { "post": { "summary": "Move draft to _posts", "responses": { "200": { "description": "published post" }, "400": { "description": "not a draft" } } } },
    "{{base}}/posts/{id}/unpublish": { "post": { "summary": "Move post back to _drafts", "responses": { "200": { "description": "draft" }, "400": { "description": "not published" } } } },
    "{{base}}/posts/{id}/remove": { "post": { "summary": "Move post to _discarded", "responses": { "200": { "description": "discarded post" } } } },
    "{{base}}/posts/{id}/rename": { "post": { "summary": "Rename post file", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"filename":{"type":"string"}}}}}}, "responses": { "200": { "description": "renamed post" }, "409": { "description": "target exists" } } } },
    "{{base}}/pages/list": { "get": { "summary": "List pages", "responses": { "200": { "description": "pages" } } } },
    "{{base}}/pages/new": { "post": { "summary": "Create a page", "responses": { "200": { "description": "created page" } } } },
    "{{base}}/pages/{id}": {
      "get": { "summary": "Get page", "responses": { "200": { "description": "page" } } },
      "post": { "summary": "Update page", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/UpdateBody"}}}}, "responses": { "200": { "description": "page and tagsCategoriesAndMetadata" } } }
    },
    "{{base}}/pages/{id}/remove": { "post": { "summary": "Move page to _discarded", "responses": { "200": { "description": "discarded page" } } } },
    "{{base}}/pages/{id}/rename": { "post": { "summary": "Rename page file", "responses": { "200": { "description": "renamed page" } } } },
    "{{base}}/settings/list": { "get": { "summary": "Read admin settings", "responses": { "200": { "description": "settings" } } } },
    "{{base}}/settings/set": { "post": { "summary": "Set one option", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"value":{},"addedOptions":{"type":"object"}}}}}}, "responses": { "200": { "description": "updated, settings" }, "400": { "description": "name or value missing" } } } },
    "{{base}}/images/upload": { "post": { "summary": "Upload a pasted PNG", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"data":{"type":"string"},"filename":{"type":"string"}}}}}}, "responses": { "200": { "description": "src, msg" } } } },
    "{{base}}/deploy": { "post": { "summary": "Run the deploy command", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"message":{"type":"string"}}}}}}, "responses": { "200": { "description": "stdout, stderr or error" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } }
  }
}`
