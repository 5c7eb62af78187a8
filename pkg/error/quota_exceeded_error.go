package error

import "net/http"

type QuotaExceededError string

func (err QuotaExceededError) Error() string {
	return string(err)
}

func (err QuotaExceededError) ErrCode() string {
	return "QUOTA_EXCEEDED"
}

func (err QuotaExceededError) StatusCode() int {
	return http.StatusTooManyRequests
}
