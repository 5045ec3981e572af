package controllers

import (
	"errors"

	"bookmarket_go/utils"

	"github.com/go-playground/validator/v10"
)

// formatBindError 将绑定错误转换成对外文案
// 验证错误给出字段级提示，其余一律按参数格式错误处理
func formatBindError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			// 返回第一条字段错误
			return utils.FieldErrorMessage(fe)
		}
	}
	return "请求参数格式错误"
}
