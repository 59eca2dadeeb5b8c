package models

// Device тип устройства, определённый по User-Agent
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

// ClickEvent переход по короткой ссылке
type ClickEvent struct {
	ShortCode string
	UserAgent string
	IPAddress string
}
