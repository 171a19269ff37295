package api

import (
	"fmt"
	"net/http"
)

// sse streams broker events to the client until it disconnects.
func (h *Handlers) sse(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := h.Broker.Subscribe()
	defer h.Broker.Unsubscribe(client)

	fmt.Fprint(w, "event: connected\ndata: {\"message\": \"connected to verigo events\"}\n\n")
	flusher.Flush()

	for {
		select {
		case message, ok := <-client:
			if !ok {
				return
			}
			fmt.Fprint(w, message)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
