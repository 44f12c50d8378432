// Package api embeds the OpenAPI description served at /docs.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
