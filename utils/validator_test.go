package utils

import (
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPrice(t *testing.T) {
	assert.True(t, IsValidPrice(0))
	assert.True(t, IsValidPrice(29.9))

	assert.False(t, IsValidPrice(-0.01))
	assert.False(t, IsValidPrice(math.NaN()))
	assert.False(t, IsValidPrice(math.Inf(1)))
	assert.False(t, IsValidPrice(math.Inf(-1)))
}

func TestValidateFinite(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("finite", validateFinite))

	type payload struct {
		Price float64 `validate:"finite"`
	}

	assert.NoError(t, v.Struct(payload{Price: 9.9}))
	assert.NoError(t, v.Struct(payload{Price: 0}))
	assert.Error(t, v.Struct(payload{Price: math.NaN()}))
	assert.Error(t, v.Struct(payload{Price: math.Inf(1)}))
}

func TestFieldErrorMessage(t *testing.T) {
	v := validator.New()

	type form struct {
		Name  string `validate:"required"`
		Email string `validate:"omitempty,email"`
	}

	err := v.Struct(form{Email: "not-an-email"})
	require.Error(t, err)

	errs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	messages := make(map[string]string)
	for _, fe := range errs {
		messages[fe.Field()] = FieldErrorMessage(fe)
	}

	assert.Equal(t, "姓名不能为空", messages["Name"])
	assert.Equal(t, "邮箱格式不正确", messages["Email"])
}
