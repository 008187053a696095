package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	DeviceIDHeader   = "X-Device-Id"
	maxDeviceIDBytes = 128
)

// Device scopes the request to a client device. A missing or oversized
// X-Device-Id is replaced by a fresh id, which is echoed back either way.
func Device(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := strings.TrimSpace(r.Header.Get(DeviceIDHeader))
			if deviceID == "" || len(deviceID) > maxDeviceIDBytes || strings.ContainsAny(deviceID, ": \t") {
				deviceID = uuid.NewString()
			}
			w.Header().Set(DeviceIDHeader, deviceID)

			ctx := WithDeviceID(r.Context(), deviceID)
			if logg != nil {
				ctx = logg.WithDeviceID(ctx, deviceID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
