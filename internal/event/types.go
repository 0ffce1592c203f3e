package event

// NotificationEventPushModel matches SendPayloadDto from the notification
// service: { lstUserIds?: string[], title: string, body: string, data?: any }.
type NotificationEventPushModel struct {
	LstUserIds []string       `json:"lstUserIds,omitempty"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Data       map[string]any `json:"data,omitempty"`
}

const PushNotiQueue string = "push_noti_events"
