package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIP holds the client address resolved by RealIP.
const CtxRealIP = "real_ip"

// proxyHeaders are consulted in order; a list header contributes its left-most entry.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

func headerIP(c *gin.Context) (string, bool) {
	for _, h := range proxyHeaders {
		v := c.GetHeader(h)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String(), true
		}
	}
	return "", false
}

// RealIP stores the client address under CtxRealIP, preferring proxy headers
// over the socket peer.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip, ok := headerIP(c)
		if !ok {
			ip = c.ClientIP()
		}
		c.Set(CtxRealIP, ip)
		c.Next()
	}
}

// ClientIP returns the address RealIP resolved, or gin's view when RealIP did not run.
func ClientIP(c *gin.Context) string {
	if ip := c.GetString(CtxRealIP); ip != "" {
		return ip
	}
	return c.ClientIP()
}
