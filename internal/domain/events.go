package domain

// Event bus topics
const (
	TopicOrderPlaced        = "order:placed"
	TopicOrderStatusChanged = "order:status_changed"
)
