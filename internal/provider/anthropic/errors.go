package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	ai "github.com/spetersoncode/gatekeep"
)

// wrapError categorizes API errors by status code and carries Retry-After.
// Other errors, typically network failures, are returned unchanged.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.NewStatusError(ai.ProviderAnthropic, apiErr.StatusCode, apiErr.Response, err)
}
