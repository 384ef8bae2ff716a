package server

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed openapi.yaml
var openAPIDoc []byte

// redocVersion pins the ReDoc bundle served by /api/docs.
const redocVersion = "2.1.5"

var docsPage = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>toxscore API</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body style="margin:0">
<redoc spec-url="/api/openapi.yaml"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@%s/bundles/redoc.standalone.js"></script>
</body>
</html>`, redocVersion)

func registerDocs(e *echo.Echo) {
	e.GET("/api/openapi.yaml", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", openAPIDoc)
	})
	e.GET("/api/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, docsPage)
	})
}
