package aps

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const objectIDPrefix = "urn:adsk.objects:os.object:"

// ObjectID returns the provider object identifier for bucket and key.
func ObjectID(bucket, key string) string {
	return objectIDPrefix + bucket + "/" + key
}

// EncodeURN returns the standard base64 encoding of the object id.
func EncodeURN(bucket, key string) string {
	return base64.StdEncoding.EncodeToString([]byte(ObjectID(bucket, key)))
}

// DecodeURN recovers bucket and key from an encoded URN.
// Both standard and unpadded URL-safe encodings are accepted.
func DecodeURN(urn string) (bucket, key string, err error) {
	raw, err := decodeBase64(urn)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURN, urn)
	}

	id, ok := strings.CutPrefix(string(raw), objectIDPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURN, urn)
	}

	bucket, key, ok = strings.Cut(id, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURN, urn)
	}

	return bucket, key, nil
}

func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty urn")
	}
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
