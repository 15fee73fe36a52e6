package swagger

import _ "embed"

// OpenAPI is the kiosk API description.
//
//go:embed openapi.yaml
var OpenAPI []byte
