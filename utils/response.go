package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"status": "success", "data": data})
}

// JSONError writes the error envelope. code is a stable key such as
// "error.slotTaken".
func JSONError(c *gin.Context, status int, code, message string, retryable bool) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{
		"code":      code,
		"message":   message,
		"retryable": retryable,
	}})
}
