package cart

import "strings"

// GuestIdentity is the identity of a shopper without a verified token.
const GuestIdentity = "guest"

const localKeyPrefix = "cart-"

// NormalizeIdentity maps an empty identity to GuestIdentity.
func NormalizeIdentity(identity string) string {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return GuestIdentity
	}
	return identity
}

// IsGuest reports whether identity is the guest sentinel.
func IsGuest(identity string) bool {
	return NormalizeIdentity(identity) == GuestIdentity
}

// LocalKey is the local storage key for identity: cart-guest or cart-<id>.
func LocalKey(identity string) string {
	return localKeyPrefix + NormalizeIdentity(identity)
}
