// Package api 嵌入的 OpenAPI 描述文件
package api

import "embed"

//go:embed openapi/*.yaml
var OpenAPIFS embed.FS
