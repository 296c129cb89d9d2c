package models

// Update is one inbound chat message.
type Update struct {
	ID      int64
	Channel string // chat the reply goes back to
	Text    string
}

// Credentials are the uplink credentials written by the provisioning portal.
type Credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"-"`
}
