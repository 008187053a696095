package middleware

import "context"

type contextKey string

const (
	ctxIdentity contextKey = "identity"
	ctxUserID   contextKey = "user_id"
	ctxDeviceID contextKey = "device_id"
)

const guestIdentity = "guest"

// IdentityFromContext returns the caller's user id or "guest".
func IdentityFromContext(ctx context.Context) string {
	if ctx == nil {
		return guestIdentity
	}
	if v, ok := ctx.Value(ctxIdentity).(string); ok && v != "" {
		return v
	}
	return guestIdentity
}

// UserIDFromContext returns the verified user id, or "" for guests.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func DeviceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDeviceID).(string); ok {
		return v
	}
	return ""
}

// WithUserID marks the request as authenticated as userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxIdentity, userID)
}

// WithDeviceID injects the device identifier into the context.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDeviceID, deviceID)
}
