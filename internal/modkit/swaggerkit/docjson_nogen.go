//go:build !swag

package swaggerkit

import _ "embed"

// document is the checked in spec; TestDocumentMatchesHandlers keeps it in step with the routes
//
//go:embed openapi.json
var document []byte

var docReader = func() string { return string(document) }
