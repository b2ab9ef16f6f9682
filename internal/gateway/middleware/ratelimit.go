package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"vanik-system/config"
)

// RateLimit throttles requests per client IP. The rate uses limiter's
// formatted syntax ("10-M" is ten requests a minute); an empty value falls
// back to that default.
func RateLimit(formatted string) gin.HandlerFunc {
	if formatted == "" {
		formatted = "10-M"
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		config.GetLogger().WithField("rate_limit", formatted).Fatal("invalid RATE_LIMIT value")
	}

	instance := limiter.New(memory.NewStore(), rate)
	limiterMiddleware := stdlib.NewMiddleware(instance)

	return func(c *gin.Context) {
		limiterMiddleware.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if c.Writer.Status() == http.StatusTooManyRequests {
			c.Abort()
			return
		}
	}
}
