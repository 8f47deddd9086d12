// Package flash stores one-shot messages in the session, shown on the next
// rendered page and then discarded.
package flash

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2/middleware/session"
)

const sessionKey = "flash"

// Message is a single flash entry.
type Message struct {
	Kind string `json:"kind"` // "success", "error" or "info"
	Text string `json:"text"`
}

// Add appends a message to the session. The caller is responsible for
// saving the session.
func Add(sess *session.Session, kind, text string) {
	msgs := pending(sess)
	msgs = append(msgs, Message{Kind: kind, Text: text})
	if b, err := json.Marshal(msgs); err == nil {
		sess.Set(sessionKey, string(b))
	}
}

// Take returns pending messages and clears them from the session. The
// caller is responsible for saving the session.
func Take(sess *session.Session) []Message {
	msgs := pending(sess)
	if len(msgs) > 0 {
		sess.Delete(sessionKey)
	}
	return msgs
}

func pending(sess *session.Session) []Message {
	raw, ok := sess.Get(sessionKey).(string)
	if !ok || raw == "" {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil
	}
	return msgs
}
