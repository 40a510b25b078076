package middleware

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Local dev hosts widget surfaces served from these ports.
var devPorts = []int{3000, 4320, 4321}

// CORSMiddleware allows the local development origins plus the headers the
// widget runtime sends: tenant routing, session identity, and the htmx
// request metadata.
func CORSMiddleware() gin.HandlerFunc {
	var origins []string
	for _, host := range []string{"localhost", "127.0.0.1", "[::1]"} {
		for _, port := range devPorts {
			origins = append(origins, fmt.Sprintf("http://%s:%d", host, port))
		}
	}

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control",
			"X-Tenant-ID", "X-Requested-With", "X-Lifemap-Session-ID", "X-Lifemap-Surface",
			"hx-current-url", "hx-request", "hx-target", "hx-trigger", "hx-boosted",
			"hx-trigger-name", "hx-active-element", "hx-active-element-name", "hx-active-element-value",
		},
		AllowCredentials: true,
		ExposeHeaders:    []string{"Content-Type", "Cache-Control", "Connection"},
	})
}
