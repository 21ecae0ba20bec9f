package codec

import (
	"encoding/binary"
	"fmt"
	"sync"

	"gopkg.in/hraban/opus.v2"
)

// 单帧最长120ms，按48kHz计算解码缓冲区上限
const maxFrameSamples = 48000 * 120 / 1000

// Init 检查Opus库是否可用
func Init() error {
	// 尝试创建解码器以验证 Opus 库是否可用
	if _, err := opus.NewDecoder(16000, 1); err != nil {
		return fmt.Errorf("初始化 Opus 解码器失败: %v", err)
	}
	return nil
}

// Encoder 把连续的16位小端PCM切成固定时长的帧并编码为Opus
type Encoder struct {
	enc          *opus.Encoder
	frameSamples int // 每帧采样点数（含全部通道）
	pending      []int16
	out          []byte
}

// NewEncoder 创建编码器
// 参数:
//   - sampleRate: 采样率
//   - channels: 通道数
//   - frameDurationMs: 每帧时长（毫秒），与hello中声明的一致
func NewEncoder(sampleRate, channels, frameDurationMs int) (*Encoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("创建Opus编码器失败: %w", err)
	}
	return &Encoder{
		enc:          enc,
		frameSamples: sampleRate * frameDurationMs / 1000 * channels,
		out:          make([]byte, 4000),
	}, nil
}

// FrameBytes 返回一帧PCM的字节数
func (e *Encoder) FrameBytes() int {
	return e.frameSamples * 2
}

// Encode 追加PCM数据，返回其中凑满的完整Opus帧
// 不足一帧的数据留到下次调用
func (e *Encoder) Encode(pcm []byte) ([][]byte, error) {
	e.pending = append(e.pending, bytesToInt16(pcm)...)

	var frames [][]byte
	for len(e.pending) >= e.frameSamples {
		n, err := e.enc.Encode(e.pending[:e.frameSamples], e.out)
		if err != nil {
			return frames, fmt.Errorf("Opus编码失败: %w", err)
		}
		frame := make([]byte, n)
		copy(frame, e.out[:n])
		frames = append(frames, frame)
		e.pending = e.pending[e.frameSamples:]
	}
	// 避免底层数组无限增长
	if len(e.pending) == 0 {
		e.pending = e.pending[:0:0]
	}
	return frames, nil
}

// Decoder 把Opus帧解码为16位小端PCM，可以被多个协程调用
type Decoder struct {
	mu       sync.Mutex
	dec      *opus.Decoder
	channels int
	pcm      []int16
}

// NewDecoder 创建解码器
func NewDecoder(sampleRate, channels int) (*Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("创建Opus解码器失败: %w", err)
	}
	return &Decoder{
		dec:      dec,
		channels: channels,
		pcm:      make([]int16, maxFrameSamples*channels),
	}, nil
}

// Decode 解码一帧Opus数据
func (d *Decoder) Decode(frame []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	samples, err := d.dec.Decode(frame, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("Opus解码失败: %w", err)
	}
	return int16ToBytes(d.pcm[:samples*d.channels]), nil
}

func bytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
