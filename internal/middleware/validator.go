package middleware

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-petr/pet-exchange/internal/domain"
	"github.com/go-petr/pet-exchange/pkg/currencypkg"
	"github.com/go-playground/validator/v10"
)

// ValidCurrency validates whether the currency is supported.
var ValidCurrency validator.Func = func(fl validator.FieldLevel) bool {
	if c, ok := fl.Field().Interface().(string); ok {
		return currencypkg.IsSupportedCurrency(c)
	}

	return false
}

// ValidNetwork validates whether the network is supported.
var ValidNetwork validator.Func = func(fl validator.FieldLevel) bool {
	switch n := fl.Field().Interface().(type) {
	case string:
		return domain.Network(n).IsSupported()
	case domain.Network:
		return n.IsSupported()
	}

	return false
}

// RegisterValidators adds the currency and network binding tags to gin.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	if err := v.RegisterValidation("currency", ValidCurrency); err != nil {
		return err
	}

	return v.RegisterValidation("network", ValidNetwork)
}
