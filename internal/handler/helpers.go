package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/huddlechat/huddle-backend/internal/common"
	"github.com/huddlechat/huddle-backend/internal/domain"
	"github.com/huddlechat/huddle-backend/internal/middleware"
	"github.com/huddlechat/huddle-backend/pkg/ginutil"
)

// RegisterValidators adds the custom binding tags used by request DTOs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("member_role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
}

// requireUser returns the authenticated user id or writes 401
func requireUser(c *gin.Context) (uint64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}

// pathID parses a numeric path parameter or writes 400
func pathID(c *gin.Context, key string) (uint64, bool) {
	id, err := ginutil.ParamUint64(c, key)
	if err != nil || id == 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return id, true
}

// bindJSON binds and validates the body or writes 400
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// idResponse is the payload of mutations that return the affected id
type idResponse struct {
	ID uint64 `json:"id"`
}
