// Package docs embeds the OpenAPI description of the HTTP API.
package docs

import "embed"

// SwaggerFile is the name of the OpenAPI document inside FS.
const SwaggerFile = "swagger.yml"

//go:embed swagger.yml
var FS embed.FS
