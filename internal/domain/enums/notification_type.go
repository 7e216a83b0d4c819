package enums

type NotificationType string

const (
	NotificationTypeMatch           NotificationType = "match"
	NotificationTypeChatRequest     NotificationType = "chat_request"
	NotificationTypeRequestAccepted NotificationType = "request_accepted"
	NotificationTypeMessage         NotificationType = "message"
)
