package validators

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterBinding teaches gin's validator the username and slug tags and makes
// it report fields by their JSON names.
func RegisterBinding() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}

	var err error
	registerOnce.Do(func() {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})

		err = errors.Join(
			v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
				return UsernameValidator(fl.Field().String()) == nil
			}),
			v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
				return SlugValidator(fl.Field().String()) == nil
			}),
		)
	})

	return err
}
