package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewScrapeServer exposes the default registry for processes that carry no
// API router, such as the queue worker.
func NewScrapeServer(port int) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", Handler())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
