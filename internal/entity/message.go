package entity

// ActionAnalyzeBookmarks is the only message action the service understands.
const ActionAnalyzeBookmarks = "analyzeBookmarks"

// Message is a request sent by a UI collaborator, e.g. {"action": "analyzeBookmarks"}.
type Message struct {
	Action string `json:"action"`
}
