package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sinePCM(samples int) []byte {
	pcm := make([]int16, samples)
	for i := range pcm {
		pcm[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return int16ToBytes(pcm)
}

func TestInit(t *testing.T) {
	require.NoError(t, Init())
}

func TestEncoderBuffersPartialFrames(t *testing.T) {
	enc, err := NewEncoder(16000, 1, 60)
	require.NoError(t, err)
	assert.Equal(t, 960*2, enc.FrameBytes())

	pcm := sinePCM(960 * 2)

	frames, err := enc.Encode(pcm[:1000])
	require.NoError(t, err)
	assert.Empty(t, frames, "不足一帧时不应输出")

	frames, err = enc.Encode(pcm[1000:])
	require.NoError(t, err)
	assert.Len(t, frames, 1)

	frames, err = enc.Encode(sinePCM(960 + 10))
	require.NoError(t, err)
	assert.Len(t, frames, 1)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc, err := NewEncoder(16000, 1, 60)
	require.NoError(t, err)
	dec, err := NewDecoder(16000, 1)
	require.NoError(t, err)

	frames, err := enc.Encode(sinePCM(960))
	require.NoError(t, err)
	require.Len(t, frames, 1)

	pcm, err := dec.Decode(frames[0])
	require.NoError(t, err)
	assert.Len(t, pcm, 960*2)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	dec, err := NewDecoder(16000, 1)
	require.NoError(t, err)

	_, err = dec.Decode(nil)
	assert.Error(t, err)
}

func TestSampleConversion(t *testing.T) {
	samples := []int16{0, 1, -1, math.MaxInt16, math.MinInt16}
	assert.Equal(t, samples, bytesToInt16(int16ToBytes(samples)))
	assert.Equal(t, []byte{0x01, 0x00, 0xff, 0xff}, int16ToBytes([]int16{1, -1}))
}
