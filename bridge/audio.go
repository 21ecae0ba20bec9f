package bridge

import (
	"context"
	"fmt"

	"xiaozhi-core/config"
	"xiaozhi-core/log"
	"xiaozhi-core/utils/codec"
)

// Audio 连接本地音频进程
// 上行是麦克风帧，下行是服务端的播放音频
type Audio struct {
	ep     *udpEndpoint
	events chan<- AudioEvent

	// pcm格式时才会创建
	encoder *codec.Encoder
	decoder *codec.Decoder
}

// NewAudio 创建音频桥
// 参数:
//   - cfg: 音频进程通道配置
//   - hello: 上行音频参数，pcm格式时按此参数编码
//   - events: 麦克风帧投递队列
func NewAudio(cfg config.AudioConfig, hello config.HelloConfig, events chan<- AudioEvent) (*Audio, error) {
	ep, err := listenUDP("0.0.0.0", cfg.LocalPort, cfg.RemoteIP, cfg.RemotePort, cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("音频桥: %w", err)
	}
	a := &Audio{ep: ep, events: events}

	if cfg.StreamFormat == config.StreamFormatPCM {
		if a.encoder, err = codec.NewEncoder(hello.SampleRate, hello.Channels, hello.FrameDuration); err != nil {
			ep.Close()
			return nil, err
		}
		if a.decoder, err = codec.NewDecoder(cfg.PlaybackSampleRate, cfg.PlaybackChannels); err != nil {
			ep.Close()
			return nil, err
		}
	}

	log.Infof("音频桥已启动: 本地端口 %d -> %s (格式 %s)", ep.localAddr().Port, ep.remote, cfg.StreamFormat)
	return a, nil
}

// Run 接收麦克风数据并投递给控制器，ctx取消后返回
func (a *Audio) Run(ctx context.Context) error {
	return a.ep.recvLoop(ctx, func(data []byte) bool {
		if a.encoder == nil {
			return deliver(ctx, a.events, AudioEvent{Data: data})
		}

		frames, err := a.encoder.Encode(data)
		if err != nil {
			log.Warnf("麦克风数据编码失败: %v", err)
		}
		for _, frame := range frames {
			if !deliver(ctx, a.events, AudioEvent{Data: frame}) {
				return false
			}
		}
		return true
	})
}

// SendAudio 把服务端音频发给音频进程播放
func (a *Audio) SendAudio(data []byte) error {
	if a.decoder != nil {
		pcm, err := a.decoder.Decode(data)
		if err != nil {
			return err
		}
		data = pcm
	}
	return a.ep.send(data)
}

// SendMessage 音频通道只传输音频
func (a *Audio) SendMessage(string) error {
	return ErrUnsupported
}

// Close 释放UDP端口
func (a *Audio) Close() error {
	return a.ep.Close()
}
