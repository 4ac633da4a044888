package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func TestToDetails_UsesJSONFieldNames(t *testing.T) {
	Init()

	err := binding.Validator.ValidateStruct(sampleRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8 characters long", details["password"])
}

func TestToDetails_NilError(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
}

func TestToDetails_UnknownError(t *testing.T) {
	details := ToDetails(assert.AnError)
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, details)
}
