package routes

import (
	"strings"
	"sync"

	"po-bridge-api-server/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var registerOnce sync.Once

// RegisterValidators adds the line_status and objectid binding rules to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("line_status", func(fl validator.FieldLevel) bool {
			return models.LineStatus(strings.ToUpper(strings.TrimSpace(fl.Field().String()))).Valid()
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(strings.TrimSpace(fl.Field().String()))
		})
	})
}
