package events

import (
	"io"

	"github.com/gin-gonic/gin"
)

// SSEHandler streams hub events to the client as server-sent events.
func SSEHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := hub.Subscribe()
		defer hub.Unsubscribe(sub)

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		clientGone := c.Request.Context().Done()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-clientGone:
				return false
			case e, ok := <-sub.C:
				if !ok {
					return false
				}
				c.SSEvent(e.Name, e.Payload)
				return true
			}
		})
	}
}
