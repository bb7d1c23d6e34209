package gemini

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const resourceExhausted = "RESOURCE_EXHAUSTED"

// isQuotaError reports whether err is the remote rate-limit condition.
func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == resourceExhausted {
			return true
		}
	}

	return strings.Contains(err.Error(), resourceExhausted)
}

func encodeTransport(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
