package util

import (
	"Rankify/internal/model"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
)

var validate = newValidator()

// newValidator 错误信息中的字段名使用 json/form 标签，与客户端提交的字段一致
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ValidateDTO 校验失败时返回包装了 model.ErrValidation 的错误
func ValidateDTO(dto any) error {
	err := validate.Struct(dto)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return pkgerrors.WithMessage(model.ErrValidation, err.Error())
	}
	msgs := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		msgs = append(msgs, "字段 ["+fe.Namespace()+"] 校验失败，规则 ["+fe.Tag()+"]")
	}
	return pkgerrors.WithMessage(model.ErrValidation, strings.Join(msgs, "; "))
}
