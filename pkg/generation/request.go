package generation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const dataURLPrefix = "data:image/"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
		return IsResolution(fl.Field().String())
	})
	return v
}

// ValidateImageData checks that data is a base64 encoded image data URL.
func ValidateImageData(data string) error {
	if strings.TrimSpace(data) == "" {
		return &ValidationError{Field: "imageData", Msg: "image data is required"}
	}
	if _, _, err := ParseDataURL(data); err != nil {
		return err
	}
	return nil
}

// ParseDataURL splits an image data URL into its MIME type and base64 payload.
func ParseDataURL(data string) (mimeType, payload string, err error) {
	if !strings.HasPrefix(data, dataURLPrefix) {
		return "", "", &ValidationError{Field: "imageData", Msg: "image data must be an image data URL"}
	}
	header, body, ok := strings.Cut(data[len("data:"):], ",")
	if !ok || body == "" {
		return "", "", &ValidationError{Field: "imageData", Msg: "image data URL has no payload"}
	}
	mimeType, _, _ = strings.Cut(header, ";")
	if !strings.HasSuffix(header, ";base64") || mimeType == "image/" {
		return "", "", &ValidationError{Field: "imageData", Msg: "image data URL must be base64 encoded"}
	}
	return mimeType, body, nil
}

// EncodeDataURL renders raw image bytes as a data URL for the given MIME type.
func EncodeDataURL(mimeType string, raw []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// Normalize validates req and fills in defaults for every absent parameter.
func Normalize(req Request) (Params, error) {
	if err := ValidateImageData(req.ImageData); err != nil {
		return Params{}, err
	}
	if err := validate.Struct(req); err != nil {
		return Params{}, translate(err)
	}

	p := Params{
		ImageURL: req.ImageData,
		Prompt:   req.Prompt,
		Quality:  Quality(req.Quality),
		Duration: req.Duration,
		FPS:      req.FPS,
		Size:     req.Size,
	}
	if strings.TrimSpace(p.Prompt) == "" {
		p.Prompt = DefaultPrompt
	}
	if p.Quality == "" {
		p.Quality = DefaultQuality
	}
	if p.Duration == 0 {
		p.Duration = DefaultDuration
	}
	if p.FPS == 0 {
		p.FPS = DefaultFPS
	}
	if p.Size == "" {
		p.Size = DefaultSize
	}
	return p, nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Msg: err.Error()}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "oneof":
		return &ValidationError{Field: fe.Field(), Msg: fmt.Sprintf("must be one of [%s]", fe.Param())}
	case "resolution":
		return &ValidationError{Field: fe.Field(), Msg: fmt.Sprintf("must be one of [%s]", strings.Join(Resolutions, " "))}
	default:
		return &ValidationError{Field: fe.Field(), Msg: fmt.Sprintf("failed %q validation", fe.Tag())}
	}
}
