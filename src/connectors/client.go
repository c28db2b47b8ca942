package connectors

import (
	"strings"

	"github.com/go-resty/resty/v2"
)

func newRestyClient(baseURL string, cfg Config) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.HTTPTimeout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)
}

// Retry on transport errors, 429 and 5xx. 4xx other than 429 will not get
// better by asking again.
func isRetryableResp(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == 429 || code >= 500
}
