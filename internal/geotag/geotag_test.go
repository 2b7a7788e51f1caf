package geotag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestJPEG 构造一个最小的 JPEG 段序列（无需可解码像素）
func newTestJPEG() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8}) // SOI
	// APP0 JFIF
	buf.Write([]byte{0xFF, 0xE0, 0x00, 0x10})
	buf.Write([]byte{'J', 'F', 'I', 'F', 0, 1, 1, 0, 0, 1, 0, 1, 0, 0})
	// SOS + 伪压缩数据 + EOI
	buf.Write([]byte{0xFF, 0xDA, 0x00, 0x02})
	buf.Write([]byte{0x01, 0x02, 0x03, 0x04})
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func TestEmbedExtractRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		lat  float64
		lon  float64
	}{
		{"north east", 31.230416, 121.473701},
		{"south west", -33.868820, -151.209290}, // 西经用负值表示
		{"equator edge", 0.000500, 103.819839},
		{"high latitude", 78.223172, 15.626723},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			embedded, err := Embed(newTestJPEG(), Coordinates{Latitude: tc.lat, Longitude: tc.lon})
			require.NoError(t, err)

			coords, found, err := Extract(embedded)
			require.NoError(t, err)
			require.True(t, found)

			// 秒按 1/100 量化，误差上限约 0.00001 度
			assert.InDelta(t, tc.lat, coords.Latitude, 0.00002)
			assert.InDelta(t, tc.lon, coords.Longitude, 0.00002)
		})
	}
}

func TestEmbedPreservesPixelData(t *testing.T) {
	original := newTestJPEG()
	embedded, err := Embed(original, Coordinates{Latitude: 10, Longitude: 20})
	require.NoError(t, err)

	// SOS 之后的压缩数据必须原样保留
	sosIdx := bytes.Index(embedded, []byte{0xFF, 0xDA})
	require.Greater(t, sosIdx, 0)
	assert.Equal(t, []byte{0xFF, 0xDA, 0x00, 0x02, 0x01, 0x02, 0x03, 0x04, 0xFF, 0xD9}, embedded[sosIdx:])

	// 原 APP0 段仍在
	assert.Contains(t, string(embedded), "JFIF")
}

func TestEmbedZeroCoordinatesIsNoop(t *testing.T) {
	original := newTestJPEG()
	out, err := Embed(original, Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, original, out)

	_, found, err := Extract(out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEmbedReplacesExistingExif(t *testing.T) {
	first, err := Embed(newTestJPEG(), Coordinates{Latitude: 1, Longitude: 2})
	require.NoError(t, err)

	second, err := Embed(first, Coordinates{Latitude: 48.858370, Longitude: 2.294481})
	require.NoError(t, err)

	// 只应存在一个 Exif APP1 段
	assert.Equal(t, 1, bytes.Count(second, []byte("Exif\x00\x00")))

	coords, found, err := Extract(second)
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 48.858370, coords.Latitude, 0.00002)
	assert.InDelta(t, 2.294481, coords.Longitude, 0.00002)
}

func TestExtractWithoutGPS(t *testing.T) {
	_, found, err := Extract(newTestJPEG())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNotJPEG(t *testing.T) {
	_, err := Embed([]byte("not an image"), Coordinates{Latitude: 1, Longitude: 1})
	assert.ErrorIs(t, err, ErrNotJPEG)

	_, _, err = Extract([]byte{0x89, 'P', 'N', 'G'})
	assert.ErrorIs(t, err, ErrNotJPEG)
}

func TestEmbedTruncatedData(t *testing.T) {
	// 截断的段结构返回错误而不是越界
	truncated := [][]byte{
		{0xFF, 0xD8, 0xFF},                   // 裸 marker 前缀
		{0xFF, 0xD8, 0xFF, 0xE0},             // 段长度字段缺失
		{0xFF, 0xD8, 0xFF, 0xE0, 0x00},       // 段长度字段不完整
		{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x10}, // 段长度超出数据末尾
		{0xFF, 0xD8, 0x00},                   // 非 marker 字节
	}

	for _, data := range truncated {
		_, err := Embed(data, Coordinates{Latitude: 10, Longitude: 20})
		assert.ErrorIs(t, err, ErrTruncated, "input % X", data)
	}
}

func TestDMSQuantization(t *testing.T) {
	dms := toDMS(31.230416)
	assert.Equal(t, uint32(31), dms[0].Num)
	assert.Equal(t, uint32(13), dms[1].Num)
	assert.Equal(t, uint32(100), dms[2].Den)

	back := fromDMS(dms, 'N')
	assert.InDelta(t, 31.230416, back, 0.00002)

	// 南半球引用取负
	assert.InDelta(t, -31.230416, fromDMS(dms, 'S'), 0.00002)
}
