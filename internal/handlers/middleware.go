package handlers

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// loopbackOnly rejects peers outside the loopback interface unless remote
// access was enabled. Forwarding headers are ignored.
func (h *Handler) loopbackOnly(c *gin.Context) {
	if h.allowRemote || isLoopback(c.Request.RemoteAddr) {
		c.Next()
		return
	}
	if h.log != nil {
		h.log.Warnw("remote_request_rejected", "remote_addr", c.Request.RemoteAddr, "path", c.Request.URL.Path)
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": "only loopback clients are allowed",
	})
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
