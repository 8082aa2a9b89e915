package models

// Device is a registered push target. Devices are never deleted; permanent
// gateway rejections flip Active to false so dispatch skips them without
// losing history.
type Device struct {
	Token        string `json:"token"`
	RegisteredAt int64  `json:"registered_at"`
	LastSeen     int64  `json:"last_seen"`
	Active       bool   `json:"active"`
}
