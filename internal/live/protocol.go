package live

import "encoding/json"

// Message is the websocket envelope in both directions.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Client to server.
	TypeIntent      = "intent"
	TypeIntents     = "intents"
	TypeTransaction = "transaction"
	TypeSave        = "save"

	// Server to client.
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeAck     = "ack"
	TypeSaved   = "saved"
	TypeError   = "error"
)

// TransactionPayload groups intents into one undoable step.
type TransactionPayload struct {
	Label   string            `json:"label"`
	Intents []json.RawMessage `json:"intents"`
}

type AckPayload struct {
	Revision uint64 `json:"revision"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
