//go:build swag

package swaggerkit

import (
	"bioreactor/internal/platform/logger"

	// registers the "api" instance; regenerate with go generate ./cmd/bioreactor-api
	_ "bioreactor/internal/services/api/docs"

	"github.com/swaggo/swag/v2"
)

// docReader serves the spec swag generated from the handler annotations
var docReader = func() string {
	doc, err := swag.ReadDoc("api")
	if err != nil {
		logger.Get().Error().Err(err).Msg("swag read doc")
		return `{"swagger":"2.0","info":{"title":"Bioreactor API","version":"0.0.0"},"paths":{}}`
	}
	return doc
}
