package server

import (
	"encoding/xml"
	"net/http"
	"strings"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// handleTwilioWebhook answers an inbound chat message with TwiML. The reply
// is sent even when the turn could not be stored, since it then carries
// the apology.
func (s *Server) handleTwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	from := normalizeSender(r.PostForm.Get("From"))
	if from == "" {
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}

	reply, err := s.chat.Handle(r.Context(), from, r.PostForm.Get("Body"))
	if err != nil {
		s.log.Error("webhook turn error", "user", from, "error", err)
	}
	writeTwiML(w, reply.Text)
}

// normalizeSender strips the channel prefix and ensures the leading "+".
func normalizeSender(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.Index(from, ":"); i >= 0 {
		from = from[i+1:]
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if !strings.HasPrefix(from, "+") {
		from = "+" + from
	}
	return from
}

func writeTwiML(w http.ResponseWriter, text string) {
	body, err := xml.Marshal(twimlResponse{Message: text})
	if err != nil {
		http.Error(w, "encoding reply", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(body)
}
