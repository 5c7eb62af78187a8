package error

import "net/http"

// UpstreamError wraps failures raised by the external extraction tool
// (network, parsing, no audio stream). Never cached, never retried here.
type UpstreamError string

func (err UpstreamError) Error() string {
	return string(err)
}

func (err UpstreamError) ErrCode() string {
	return "UPSTREAM_EXTRACTION_FAILURE"
}

func (err UpstreamError) StatusCode() int {
	return http.StatusBadGateway
}
