package session

import (
	"crypto/sha256"
	"encoding/hex"
)

// Keys is the deterministic identity a session presents to the dialog
// engine. Both keys derive from (client ID, chat ID) via one-way hashes, so
// chats never collide across bot clients sharing one process and no
// secondary index is needed to find a session's engine identity.
type Keys struct {
	SessionID string `json:"sessionID"`
	UserID    string `json:"userID"`
}

// DeriveKeys computes the engine identity for a chat of a client.
func DeriveKeys(clientID, chatID string) Keys {
	return Keys{
		SessionID: hashWith(clientID, chatID, "session_id"),
		UserID:    hashWith(clientID, chatID, "user_id"),
	}
}

func hashWith(clientID, chatID, suffix string) string {
	h := sha256.New()
	h.Write([]byte(clientID))
	h.Write([]byte(chatID))
	h.Write([]byte(suffix))
	return hex.EncodeToString(h.Sum(nil))
}
