package api

import (
	"net/http"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/avdeenkov/flightbook/internal/search"
	"github.com/gin-gonic/gin"
)

// Every response carries the same envelope: failures are
// {status:"Failed", statusCode, message}, successes add data and, for
// paginated listings, a pagination object.
type failedResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type successResponse struct {
	Status     string             `json:"status"`
	StatusCode int                `json:"statusCode"`
	Message    string             `json:"message"`
	Data       interface{}        `json:"data"`
	Pagination *search.Pagination `json:"pagination,omitempty"`
}

const msgNoSchedules = "No schedules available for the given criteria"

func fail(c *gin.Context, err error) {
	if apiErr, ok := domain.AsAPIError(err); ok {
		c.JSON(apiErr.Status, failedResponse{Status: "Failed", StatusCode: apiErr.Status, Message: apiErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, failedResponse{
		Status:     "Failed",
		StatusCode: http.StatusInternalServerError,
		Message:    "internal server error",
	})
}

func success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, successResponse{Status: "Success", StatusCode: status, Message: message, Data: data})
}

func successPaginated(c *gin.Context, status int, message string, data interface{}, pagination search.Pagination) {
	c.JSON(status, successResponse{Status: "Success", StatusCode: status, Message: message, Data: data, Pagination: &pagination})
}
