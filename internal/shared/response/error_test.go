package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestErrorWithCode(t *testing.T) {
	c, w := testContext()
	ErrorWithCode(c, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "quota exceeded")

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.JSONEq(t, `{"error":"quota exceeded","code":"INSUFFICIENT_CREDITS"}`, w.Body.String())
}

func TestHandleError(t *testing.T) {
	errQuota := errors.New("quota exceeded")
	mappings := []ErrorMapping{
		{Err: errQuota, Status: http.StatusPaymentRequired, Code: "QUOTA"},
	}

	t.Run("matches wrapped errors", func(t *testing.T) {
		c, w := testContext()
		handled := HandleError(c, fmt.Errorf("engine brave: %w", errQuota), mappings)

		assert.True(t, handled)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, w.Body.String(), "QUOTA")
	})

	t.Run("unmapped errors are not handled", func(t *testing.T) {
		c, _ := testContext()
		assert.False(t, HandleError(c, errors.New("other"), mappings))
	})

	t.Run("default fallback is a 500", func(t *testing.T) {
		c, w := testContext()
		HandleErrorWithDefault(c, errors.New("other"), mappings)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("explicit message overrides the error text", func(t *testing.T) {
		c, w := testContext()
		HandleError(c, errQuota, []ErrorMapping{
			{Err: errQuota, Status: http.StatusPaymentRequired, Message: "try next month"},
		})
		assert.Contains(t, w.Body.String(), "try next month")
	})
}
