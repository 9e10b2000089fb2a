package controller

import (
	"encoding/json"
	"mime/multipart"
	"strconv"
	"strings"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// idParam parses a numeric route parameter. Anything that is not a positive
// integer cannot name an entity, so it is reported as not found.
func idParam(ctx *fiber.Ctx, name string) (int64, error) {
	raw := ctx.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("Resource '%s' not found", raw)
	}
	return id, nil
}

// stringParam copies a route parameter; fiber reuses the underlying buffer
// once the handler returns.
func stringParam(ctx *fiber.Ctx, name string) string {
	return strings.Clone(ctx.Params(name))
}

func isMultipart(ctx *fiber.Ctx) bool {
	return strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// formFiles accepts both "files" and "files[]" as the part name.
func formFiles(form *multipart.Form) []*multipart.FileHeader {
	files := append([]*multipart.FileHeader{}, form.File["files"]...)
	return append(files, form.File["files[]"]...)
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formJSON decodes a JSON-encoded form field into out. A missing field
// leaves out untouched.
func formJSON(form *multipart.Form, key string, out interface{}) error {
	raw := strings.TrimSpace(formValue(form, key))
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperror.ValidationField(key, key+" must be valid JSON")
	}
	return nil
}

func formInt64(form *multipart.Form, key string) (*int64, error) {
	raw := strings.TrimSpace(formValue(form, key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.ValidationField(key, key+" must be an integer")
	}
	return &v, nil
}

func parseFileMetadata(form *multipart.Form) ([]dto.FileMetadata, error) {
	var meta []dto.FileMetadata
	if err := formJSON(form, "metadata_for_files", &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// parseBody decodes the JSON body. Malformed input is a validation failure,
// not a server error.
func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Validation("Invalid request body: "+err.Error(), nil)
	}
	return nil
}
