package consts

const (
	CHANGE_CHANNEL_ACCOUNT    = "admin:change:channel:account"
	CHANGE_CHANNEL_GROUP      = "admin:change:channel:group"
	CHANGE_CHANNEL_PERMISSION = "admin:change:channel:permission"

	ACTION_CREATE = "create"
	ACTION_UPDATE = "update"
	ACTION_DELETE = "delete"
	ACTION_STATUS = "status"
)
