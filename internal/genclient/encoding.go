package genclient

import (
	"encoding/base64"
	"fmt"
	"strings"
)

func base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a data URI back into MIME type and raw bytes.
func ParseDataURI(uri string) (ImageData, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "data:") {
		return ImageData{}, fmt.Errorf("not a data URI")
	}
	rest := strings.TrimPrefix(uri, "data:")
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return ImageData{}, fmt.Errorf("data URI is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(rest[sep+len(";base64,"):])
	if err != nil {
		return ImageData{}, fmt.Errorf("decode data URI: %w", err)
	}
	return ImageData{MIMEType: rest[:sep], Data: raw}, nil
}
