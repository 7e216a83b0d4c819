package enums

type ChatRequestStatus string

const (
	ChatRequestStatusPending  ChatRequestStatus = "pending"
	ChatRequestStatusAccepted ChatRequestStatus = "accepted"
	ChatRequestStatusRejected ChatRequestStatus = "rejected"
)
