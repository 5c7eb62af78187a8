package error

import "net/http"

// ArtifactMissingError means post-processing did not yield a locatable
// output file for the generated download id.
type ArtifactMissingError string

func (err ArtifactMissingError) Error() string {
	return string(err)
}

func (err ArtifactMissingError) ErrCode() string {
	return "CONVERSION_ARTIFACT_MISSING"
}

func (err ArtifactMissingError) StatusCode() int {
	return http.StatusInternalServerError
}
