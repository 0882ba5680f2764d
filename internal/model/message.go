package model

// Message is a notification ready to be dispatched
type Message struct {
	Subject string
	Body    string
	To      []string
}
