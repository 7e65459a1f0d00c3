package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	msgValidationFailed = "validation failed"
	msgInvalidBody      = "invalid request body"
	msgRecipeNotFound   = "recipe not found"
	msgInternal         = "internal server error"
)

// ErrorResponse is the body of every error reply. Fields is only set for
// validation failures and maps a JSON path such as "ingredients[1].name" to
// its problem.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func init() {
	// Report validation failures under JSON names instead of Go field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}

// respondBindError answers a request whose body failed to bind.
func respondBindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)

	if fields := bindErrorFields(err); len(fields) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msgValidationFailed, Fields: fields})
		return
	}
	respondError(c, http.StatusBadRequest, msgInvalidBody)
}

// bindErrorFields extracts per-field messages from a binding error. It
// returns nil when the body could not be read as a JSON object at all.
func bindErrorFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		return fields
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return map[string]string{typeErr.Field: "must be " + kindName(typeErr.Type)}
	}

	return nil
}

// fieldPath drops the struct name that leads every namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must not be empty"
	}
	return fmt.Sprintf("failed the %s check", fe.Tag())
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Bool:
		return "a boolean"
	}
	return "a number"
}
