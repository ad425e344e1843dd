package gateway

// Server-to-client push event names. Admin notifications additionally use
// dynamic event names passed straight through NotifyAdmins.
const (
	EventNewNotification      = "newNotification"
	EventUnreadCount          = "unreadCount"
	EventNewMessage           = "newMessage"
	EventMessageNotification  = "messageNotification"
	EventMessageUpdated       = "messageUpdated"
	EventMessageEdited        = "messageEdited"
	EventMessageDeleted       = "messageDeleted"
	EventRoleUpdate           = "roleUpdate"
	EventAccountBlocked       = "accountBlocked"
	EventPaymentStatusUpdated = "paymentStatusUpdated"
	EventTyping               = "typing"
	EventChatTyping           = "chatTyping"
	EventEchoResponse         = "echoResponse"
	EventPong                 = "pong"
	EventAccessDenied         = "accessDenied"
)
