package common

// Keys of the local metadata store.
const (
	MetadataAccessToken = "access_token"
	MetadataUserEmail   = "user_email"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
