package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"xiaozhi-core/config"
	"xiaozhi-core/controller"
	"xiaozhi-core/log"
	"xiaozhi-core/model"
)

// ActivationStatus 表示设备激活检查的结果
type ActivationStatus int

const (
	Activated       ActivationStatus = iota // 已激活，可以连接服务
	NeedActivation                          // 需要用户在手机上输入激活码
	ActivationError                         // 检查失败，稍后重试
)

func (s ActivationStatus) String() string {
	switch s {
	case Activated:
		return "activated"
	case NeedActivation:
		return "need_activation"
	case ActivationError:
		return "error"
	default:
		return "unknown"
	}
}

// ActivationResult 是一次激活检查的结果
type ActivationResult struct {
	Status  ActivationStatus
	Code    string // 激活码，仅NeedActivation时有效
	Message string
	Err     error
}

type otaRequest struct {
	Application config.ApplicationConfig `json:"application"`
	Board       config.BoardConfig       `json:"board"`
	MacAddress  string                   `json:"mac_address"`
	UUID        string                   `json:"uuid"`
}

type otaResponse struct {
	Activation *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"activation"`
	WebSocket *struct {
		URL   string `json:"url"`
		Token string `json:"token"`
	} `json:"websocket"`
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// CheckActivation 向OTA服务查询设备激活状态
// 服务端下发的websocket地址和token会覆盖cfg中的配置
// 参数:
//   - ctx: 请求上下文
//   - cfg: 设备配置，未配置ota_url时视为已激活
//
// 返回:
//   - ActivationResult: 检查结果，出错时Status为ActivationError
func CheckActivation(ctx context.Context, cfg *config.Config) ActivationResult {
	if cfg.Network.OTAURL == "" {
		return ActivationResult{Status: Activated}
	}

	body, err := json.Marshal(otaRequest{
		Application: cfg.Application,
		Board:       cfg.Board,
		MacAddress:  cfg.Network.DeviceID,
		UUID:        cfg.Network.ClientID,
	})
	if err != nil {
		return activationFailed(fmt.Errorf("序列化OTA请求失败: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Network.OTAURL, bytes.NewReader(body))
	if err != nil {
		return activationFailed(fmt.Errorf("创建OTA请求失败: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Device-Id", cfg.Network.DeviceID)
	req.Header.Set("Client-Id", cfg.Network.ClientID)
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", cfg.Board.Name, cfg.Application.Version))

	resp, err := httpClient.Do(req)
	if err != nil {
		return activationFailed(fmt.Errorf("OTA请求失败: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return activationFailed(fmt.Errorf("读取OTA响应失败: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return activationFailed(fmt.Errorf("OTA服务返回状态码 %d: %s", resp.StatusCode, data))
	}

	var ota otaResponse
	if err := json.Unmarshal(data, &ota); err != nil {
		return activationFailed(fmt.Errorf("解析OTA响应失败: %w", err))
	}

	if ota.WebSocket != nil {
		if ota.WebSocket.URL != "" {
			cfg.Network.WSURL = ota.WebSocket.URL
		}
		if ota.WebSocket.Token != "" {
			cfg.Network.WSToken = ota.WebSocket.Token
		}
	}

	if ota.Activation != nil && ota.Activation.Code != "" {
		return ActivationResult{
			Status:  NeedActivation,
			Code:    ota.Activation.Code,
			Message: ota.Activation.Message,
		}
	}
	return ActivationResult{Status: Activated}
}

func activationFailed(err error) ActivationResult {
	return ActivationResult{Status: ActivationError, Message: err.Error(), Err: err}
}

// WaitActivated 按固定间隔轮询激活状态，直到设备激活或ctx取消
// 需要激活时把激活码发给显示进程，激活后提示用户
func WaitActivated(ctx context.Context, cfg *config.Config, display controller.MessageSink, interval time.Duration) error {
	for {
		result := CheckActivation(ctx, cfg)
		switch result.Status {
		case Activated:
			log.Infof("设备已激活，开始连接服务")
			if err := display.SendMessage(model.DisplayToast("设备已激活")); err != nil {
				log.Errorf("发送消息到显示进程失败: %v", err)
			}
			return nil
		case NeedActivation:
			log.Infof("设备未激活，激活码: %s", result.Code)
			if err := display.SendMessage(model.DisplayActivation(result.Code)); err != nil {
				log.Errorf("发送消息到显示进程失败: %v", err)
			}
		default:
			log.Errorf("激活检查失败: %v，%s后重试", result.Err, interval)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
