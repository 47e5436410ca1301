package vendors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func (s *Service) validate(v Vendor) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return fmt.Errorf("vendor %s failed %s validation", errs[0].Field(), errs[0].Tag())
	}
	return err
}
