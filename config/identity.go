package config

import (
	"strings"

	"xiaozhi-core/utils"

	"github.com/google/uuid"
)

// EnsureIdentity 为占位的设备ID和客户端ID生成真实值
// 设备ID优先使用网卡MAC地址，取不到时退回UUID；客户端ID总是UUID
//
// 返回:
//   - bool: 是否有字段被修改，调用方据此决定是否持久化
func (c *Config) EnsureIdentity() bool {
	return c.ensureIdentity(utils.MACAddress)
}

func (c *Config) ensureIdentity(macLookup func() (string, error)) bool {
	dirty := false

	if c.Network.DeviceID == "" || c.Network.DeviceID == UnknownDeviceID {
		mac, err := macLookup()
		if err != nil || mac == "" {
			c.Network.DeviceID = uuid.NewString()
		} else {
			c.Network.DeviceID = strings.ToLower(mac)
		}
		dirty = true
	}

	if c.Network.ClientID == "" || c.Network.ClientID == UnknownClientID {
		c.Network.ClientID = uuid.NewString()
		dirty = true
	}

	return dirty
}
