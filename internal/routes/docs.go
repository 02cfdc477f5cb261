package routes

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hireveno/hireveno-back/internal/config"
)

//go:embed openapi.yaml
var openAPISpec []byte

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    body { margin: 0; font-family: system-ui, sans-serif; color: #14202b; background: #f5f7f9; }
    main { max-width: 1040px; margin: 0 auto; padding: 40px 20px 56px; }
    h1 { margin: 0 0 8px; }
    p { color: #4b5b69; line-height: 1.6; }
    a { color: #0b6e4f; font-weight: 600; }
    pre { padding: 20px; overflow: auto; border-radius: 12px; background: #0f172a; color: #e2e8f0; font-size: 0.9rem; }
  </style>
</head>
<body>
  <main>
    <h1>{{ .Title }}</h1>
    <p>Loaded {{ .LoadedAt }}. Raw document: <a href="/docs/openapi.yaml">/docs/openapi.yaml</a></p>
    <pre>{{ .Spec }}</pre>
  </main>
</body>
</html>
`

const (
	docsPageCSP = "default-src 'none'; style-src 'unsafe-inline'; base-uri 'none'; form-action 'none'; frame-ancestors 'none'"
	docsYAMLCSP = "default-src 'none'; frame-ancestors 'none'"
)

// registerDocsRoutes exposes the API description in development only. The page
// is rendered once at startup since the embedded document never changes.
func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	page, err := renderDocsPage()
	if err != nil {
		return err
	}

	docs := app.Group("/docs")
	servePage := func(c *fiber.Ctx) error {
		setDocsHeaders(c, fiber.MIMETextHTMLCharsetUTF8, docsPageCSP)
		return c.Send(page)
	}
	docs.Get("", servePage)
	docs.Get("/", servePage)
	docs.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		setDocsHeaders(c, "application/yaml; charset=utf-8", docsYAMLCSP)
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Send(openAPISpec)
	})

	return nil
}

func renderDocsPage() ([]byte, error) {
	tmpl, err := template.New("docs").Parse(docsIndexHTML)
	if err != nil {
		return nil, fmt.Errorf("parse docs template: %w", err)
	}

	var page bytes.Buffer
	err = tmpl.Execute(&page, struct {
		Title    string
		LoadedAt string
		Spec     string
	}{
		Title:    "hireveno-back API",
		LoadedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:     string(openAPISpec),
	})
	if err != nil {
		return nil, fmt.Errorf("render docs page: %w", err)
	}
	return page.Bytes(), nil
}

func setDocsHeaders(c *fiber.Ctx, contentType, csp string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentSecurityPolicy, csp)
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
}
