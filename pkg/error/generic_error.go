package error

// GenericError is implemented by all typed service errors so the REST
// recovery middleware can map them to a response code and HTTP status.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
