package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// 错误信息里使用请求中的字段名
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}

// ValidateDTO 使用 validate 标签校验结构体，返回首个失败字段
func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			first := vErrs[0]
			if first.Param() != "" {
				return fmt.Errorf("invalid field [%s]: rule [%s=%s]", first.Field(), first.Tag(), first.Param())
			}
			return fmt.Errorf("invalid field [%s]: rule [%s]", first.Field(), first.Tag())
		}
		return err
	}
	return nil
}
