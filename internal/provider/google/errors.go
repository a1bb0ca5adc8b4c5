package google

import (
	"errors"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/gatekeep"
)

// wrapError categorizes API errors by status code. genai.APIError carries
// no headers, so Retry-After is not available.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.NewStatusError(ai.ProviderGoogle, apiErr.Code, nil, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return ai.NewStatusError(ai.ProviderGoogle, apiErrPtr.Code, nil, err)
	}
	return err
}
