package dao

const (
	ACCOUNT                 = "account"
	API_KEY                 = "api_key"
	API_KEY_GROUP           = "api_key_group"
	API_KEY_GROUP_MAPPING   = "api_key_group_mapping"
	API_KEY_GROUP_EVENT     = "api_key_group_event"
	ACCOUNT_POOL_PERMISSION = "api_key_account_pool_permission"
)
