package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators 把自定义规则注册进gin的binding引擎
// 在路由装配前调用一次
func RegisterCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("finite", validateFinite)
	}
}

// getErrorMessage 获取错误消息
func getErrorMessage(field, tag, param string) string {
	// 中文错误消息映射
	errorMessages := map[string]string{
		"required": "%s不能为空",
		"email":    "%s格式不正确",
		"min":      "%s长度不能小于%s",
		"max":      "%s长度不能大于%s",
		"gte":      "%s必须大于或等于%s",
		"lte":      "%s必须小于或等于%s",
		"finite":   "%s必须是有效数字",
	}

	fieldNames := map[string]string{
		"name":      "姓名",
		"email":     "邮箱",
		"password":  "密码",
		"title":     "标题",
		"author":    "作者",
		"publisher": "出版社",
		"price":     "价格",
		"rating":    "评分",
		"comment":   "评论",
	}

	fieldName := fieldNames[field]
	if fieldName == "" {
		fieldName = field
	}

	format, exists := errorMessages[tag]
	if !exists {
		return fmt.Sprintf("%s验证失败", fieldName)
	}
	if param != "" {
		return fmt.Sprintf(format, fieldName, param)
	}
	return fmt.Sprintf(format, fieldName)
}

// FieldErrorMessage 将单条字段验证错误格式化为对外文案
func FieldErrorMessage(fe validator.FieldError) string {
	return getErrorMessage(strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
}

// validateFinite 验证浮点数是有效的有限数字
// JSON 本身不携带 NaN/Inf，但表单和内部调用可能传入
func validateFinite(fl validator.FieldLevel) bool {
	val := fl.Field().Float()
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// IsValidPrice 验证价格：有限且非负
func IsValidPrice(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	return price >= 0
}
