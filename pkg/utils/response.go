package utils

type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics on error so the REST recovery middleware can turn
// typed errors into the right HTTP response in one place.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
