package consts

const (
	LOCK_OAUTH_REFRESH_KEY = "relay:lock:oauth:refresh:%s"
)
