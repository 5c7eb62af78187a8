package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ndavydoff/music-finder/domains/track"
	pkgError "github.com/ndavydoff/music-finder/pkg/error"
)

func ValidateSearch(ctx context.Context, request track.SearchRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Query, validation.Required, validation.Length(1, 200)),
		validation.Field(&request.Limit, validation.Min(1), validation.Max(50)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateDownload(ctx context.Context, request track.DownloadRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.VideoID, validation.Required),
		validation.Field(&request.Title, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
