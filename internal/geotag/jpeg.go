package geotag

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrNotJPEG 输入不是 JPEG 容器
	ErrNotJPEG = errors.New("geotag: not a jpeg image")
	// ErrTruncated JPEG 段结构不完整
	ErrTruncated = errors.New("geotag: truncated jpeg data")
)

const (
	markerSOI  = 0xD8
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
	markerSOS  = 0xDA
)

// Embed 把坐标嵌入 JPEG 并返回新的缓冲区
//
// 新的 APP1 段插在 SOI 之后，原有的 Exif APP1 段被替换，其余段
// 和压缩数据原样保留。无有效坐标时返回原始字节。
func Embed(data []byte, coords Coordinates) ([]byte, error) {
	if coords.IsZero() {
		return data, nil
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}

	payload := buildGPSPayload(coords)

	out := make([]byte, 0, len(data)+len(payload)+4)
	out = append(out, 0xFF, markerSOI)

	// 新 APP1 段：marker + 长度（含长度字段自身）
	out = append(out, 0xFF, markerAPP1)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)+2))
	out = append(out, lenBuf[:]...)
	out = append(out, payload...)

	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF || pos+1 >= len(data) {
			return nil, ErrTruncated
		}
		marker := data[pos+1]

		// 扫描段到此为止，剩余部分原样拷贝
		if marker == markerSOS {
			out = append(out, data[pos:]...)
			return out, nil
		}

		if pos+4 > len(data) {
			return nil, ErrTruncated
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		segEnd := pos + 2 + segLen
		if segLen < 2 || segEnd > len(data) {
			return nil, ErrTruncated
		}

		// 丢弃旧的 Exif APP1
		if !(marker == markerAPP1 && isExifSegment(data[pos+4:segEnd])) {
			out = append(out, data[pos:segEnd]...)
		}
		pos = segEnd
	}

	return out, nil
}

// Extract 从 JPEG 中提取嵌入的坐标
//
// 返回的 bool 表示是否找到了 GPS 元数据；没有位置信息不是错误。
func Extract(data []byte) (Coordinates, bool, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return Coordinates{}, false, ErrNotJPEG
	}

	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			return Coordinates{}, false, ErrTruncated
		}
		marker := data[pos+1]
		if marker == markerSOS {
			break
		}

		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		segEnd := pos + 2 + segLen
		if segLen < 2 || segEnd > len(data) {
			return Coordinates{}, false, ErrTruncated
		}

		if marker == markerAPP1 && isExifSegment(data[pos+4:segEnd]) {
			if coords, ok := parseGPSPayload(data[pos+4 : segEnd]); ok {
				return coords, true, nil
			}
		}
		pos = segEnd
	}

	return Coordinates{}, false, nil
}

// isExifSegment 判断 APP1 段内容是否为 Exif
func isExifSegment(body []byte) bool {
	if len(body) < len(exifHeader) {
		return false
	}
	for i, c := range exifHeader {
		if body[i] != c {
			return false
		}
	}
	return true
}
