package event

import "time"

type CustomerEventPayload struct {
	CustomerID int64  `json:"customerId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Age        int    `json:"age"`
}

type CustomerRegisteredEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerUpdatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerDeletedEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	CustomerID int64     `json:"customerId"`
}
