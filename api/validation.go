package api

import (
	"github.com/Domenick1991/travelbooking/internal/card"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
			return card.Digits(fl.Field().String())
		})
	}
}
