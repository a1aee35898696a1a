package response

import "github.com/gin-gonic/gin"

// Error writes the flat error shape the API contract uses.
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"error": message})
}
