package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the API response envelope. Every response, including errors,
// carries the status code, a human-readable message and a data payload
// (object, array or null).
type Body struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// JSON sends an envelope with an arbitrary status code and data payload.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Body{Status: status, Message: message, Data: data})
}

// OK sends a 200 envelope with data.
func OK(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, message, data)
}

// BadRequest sends 400 with a null data payload.
func BadRequest(c *gin.Context, message string) {
	JSON(c, http.StatusBadRequest, message, nil)
}

// NotFound sends 404 with a null data payload.
func NotFound(c *gin.Context, message string) {
	JSON(c, http.StatusNotFound, message, nil)
}

// Internal sends 500 with a null data payload.
func Internal(c *gin.Context, message string) {
	JSON(c, http.StatusInternalServerError, message, nil)
}
