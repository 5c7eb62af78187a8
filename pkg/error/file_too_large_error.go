package error

import "net/http"

// FileTooLargeError means the transcoded artifact exceeded the configured
// ceiling. The oversized file is already deleted when this is returned.
type FileTooLargeError string

func (err FileTooLargeError) Error() string {
	return string(err)
}

func (err FileTooLargeError) ErrCode() string {
	return "FILE_TOO_LARGE"
}

func (err FileTooLargeError) StatusCode() int {
	return http.StatusRequestEntityTooLarge
}
