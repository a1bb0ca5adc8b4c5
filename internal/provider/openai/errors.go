package openai

import (
	"errors"

	"github.com/openai/openai-go"

	ai "github.com/spetersoncode/gatekeep"
)

// wrapError categorizes API errors by status code and carries Retry-After.
// Network errors are returned as-is for the retry heuristics.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return ai.NewStatusError(ai.ProviderOpenAI, apiErr.StatusCode, apiErr.Response, err)
}
