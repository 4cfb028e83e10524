package handler

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"umuganda/backend/pkg/checkincode"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则
//
//	checkin_code: 扫码内容须为 "<namespace>:<project_id>:<code>"
func RegisterValidators(codec *checkincode.Codec) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	return v.RegisterValidation("checkin_code", func(fl validator.FieldLevel) bool {
		return codec.Valid(fl.Field().String())
	})
}
