package domain

import (
	"sync"

	"bioreactor/internal/core/batchid"
	"bioreactor/internal/platform/net/http/bind"
)

var registerOnce sync.Once

// RegisterValidators adds the batchid tag to the shared validator
func RegisterValidators() {
	registerOnce.Do(func() {
		_ = bind.Get().Register("batchid", func(fl bind.FieldLevel) bool {
			return batchid.Valid(batchid.Normalize(fl.Field().String()))
		}, "{0} must be a batch id such as B001")
	})
}
