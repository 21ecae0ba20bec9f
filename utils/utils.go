package utils

import (
	"errors"
	"net"

	"xiaozhi-core/utils/codec"
)

// ErrNoHardwareAddr 表示没有找到可用的网卡MAC地址
var ErrNoHardwareAddr = errors.New("no hardware address found")

// Init 检查运行所需的本地库是否可用
func Init() error {
	return codec.Init()
}

// MACAddress 返回第一个非回环、已启用网卡的MAC地址
func MACAddress() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String(), nil
	}
	return "", ErrNoHardwareAddr
}

// GetLocalIP 获取本机第一个非回环IPv4地址，仅用于日志显示
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "unknown"
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "unknown"
}
