// Package geotag 负责在 JPEG 容器内嵌入和提取 GPS 位置元数据。
//
// 写入端只生成一个最小的 EXIF APP1 段（GPS IFD），直接拼接进 JPEG
// 段序列，像素数据不重新编码。读取端兼容大小端两种字节序。
package geotag

import (
	"encoding/binary"
	"math"
)

// Coordinates 十进制度坐标
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// IsZero (0,0) 按无坐标处理，验证端会把零点地理标签判为非法
func (c Coordinates) IsZero() bool {
	return math.Abs(c.Latitude) < 0.0001 && math.Abs(c.Longitude) < 0.0001
}

// Rational EXIF 有理数对
type Rational struct {
	Num uint32
	Den uint32
}

// Value 返回有理数的浮点值
func (r Rational) Value() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// toDMS 把十进制度的绝对值拆成 度/分/秒 三个有理数对
//
// 秒保留两位小数，存成 x/100。
func toDMS(value float64) [3]Rational {
	abs := math.Abs(value)
	deg := math.Floor(abs)
	minFloat := (abs - deg) * 60
	min := math.Floor(minFloat)
	sec := (minFloat - min) * 60

	return [3]Rational{
		{Num: uint32(deg), Den: 1},
		{Num: uint32(min), Den: 1},
		{Num: uint32(math.Round(sec * 100)), Den: 100},
	}
}

// fromDMS 由三个有理数对还原十进制度，南/西半球取负
func fromDMS(dms [3]Rational, ref byte) float64 {
	dec := dms[0].Value() + dms[1].Value()/60 + dms[2].Value()/3600
	if ref == 'S' || ref == 'W' {
		dec = -dec
	}
	return dec
}

// EXIF/TIFF 常量
const (
	tagGPSIFDPointer   = 0x8825
	tagGPSVersionID    = 0x0000
	tagGPSLatitudeRef  = 0x0001
	tagGPSLatitude     = 0x0002
	tagGPSLongitudeRef = 0x0003
	tagGPSLongitude    = 0x0004

	typeByte     = 1
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

var exifHeader = []byte{'E', 'x', 'i', 'f', 0, 0}

// buildGPSPayload 生成 APP1 段内容（Exif 头 + TIFF 结构）
//
// 固定布局：IFD0 只含一个 GPS IFD 指针项，GPS IFD 五项
// （版本、两个半球引用、两组坐标有理数），坐标数据紧随其后。
func buildGPSPayload(coords Coordinates) []byte {
	latRef := byte('N')
	if coords.Latitude < 0 {
		latRef = 'S'
	}
	lonRef := byte('E')
	if coords.Longitude < 0 {
		lonRef = 'W'
	}
	lat := toDMS(coords.Latitude)
	lon := toDMS(coords.Longitude)

	const (
		tiffSize     = 140
		ifd0Offset   = 8
		gpsIFDOffset = 26
		latOffset    = 92
		lonOffset    = 116
	)

	tiff := make([]byte, tiffSize)
	le := binary.LittleEndian

	// TIFF 头，小端
	tiff[0], tiff[1] = 'I', 'I'
	le.PutUint16(tiff[2:], 42)
	le.PutUint32(tiff[4:], ifd0Offset)

	// IFD0：仅 GPS IFD 指针
	le.PutUint16(tiff[ifd0Offset:], 1)
	putEntry(tiff[ifd0Offset+2:], tagGPSIFDPointer, typeLong, 1, gpsIFDOffset)
	le.PutUint32(tiff[ifd0Offset+14:], 0) // next IFD

	// GPS IFD
	le.PutUint16(tiff[gpsIFDOffset:], 5)
	entry := tiff[gpsIFDOffset+2:]

	putEntry(entry[0:], tagGPSVersionID, typeByte, 4, 0)
	copy(entry[8:12], []byte{2, 3, 0, 0})

	putEntry(entry[12:], tagGPSLatitudeRef, typeASCII, 2, 0)
	entry[20] = latRef

	putEntry(entry[24:], tagGPSLatitude, typeRational, 3, latOffset)
	putEntry(entry[36:], tagGPSLongitudeRef, typeASCII, 2, 0)
	entry[44] = lonRef

	putEntry(entry[48:], tagGPSLongitude, typeRational, 3, lonOffset)

	le.PutUint32(tiff[gpsIFDOffset+2+60:], 0) // next IFD

	// 坐标数据区
	writeRationals(tiff[latOffset:], lat)
	writeRationals(tiff[lonOffset:], lon)

	payload := make([]byte, 0, len(exifHeader)+tiffSize)
	payload = append(payload, exifHeader...)
	payload = append(payload, tiff...)
	return payload
}

// putEntry 写一个 12 字节的 IFD 项（小端）
func putEntry(b []byte, tag, typ uint16, count, value uint32) {
	le := binary.LittleEndian
	le.PutUint16(b[0:], tag)
	le.PutUint16(b[2:], typ)
	le.PutUint32(b[4:], count)
	le.PutUint32(b[8:], value)
}

// writeRationals 写三个有理数对
func writeRationals(b []byte, dms [3]Rational) {
	le := binary.LittleEndian
	for i, r := range dms {
		le.PutUint32(b[i*8:], r.Num)
		le.PutUint32(b[i*8+4:], r.Den)
	}
}

// byteOrder TIFF 字节序读取辅助
type byteOrder struct {
	big bool
}

func (o byteOrder) u16(b []byte) uint16 {
	if o.big {
		return binary.BigEndian.Uint16(b)
	}
	return binary.LittleEndian.Uint16(b)
}

func (o byteOrder) u32(b []byte) uint32 {
	if o.big {
		return binary.BigEndian.Uint32(b)
	}
	return binary.LittleEndian.Uint32(b)
}

// parseGPSPayload 从 APP1 段内容解析坐标
func parseGPSPayload(payload []byte) (Coordinates, bool) {
	if len(payload) < len(exifHeader)+8 {
		return Coordinates{}, false
	}
	for i, c := range exifHeader {
		if payload[i] != c {
			return Coordinates{}, false
		}
	}

	tiff := payload[len(exifHeader):]
	var order byteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = byteOrder{big: false}
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = byteOrder{big: true}
	default:
		return Coordinates{}, false
	}
	if order.u16(tiff[2:4]) != 42 {
		return Coordinates{}, false
	}

	ifd0 := order.u32(tiff[4:8])
	gpsOffset, ok := findIFDEntry(tiff, order, ifd0, tagGPSIFDPointer)
	if !ok {
		return Coordinates{}, false
	}

	return parseGPSIFD(tiff, order, gpsOffset)
}

// findIFDEntry 在 IFD 中查找指定 tag 的 LONG 值
func findIFDEntry(tiff []byte, order byteOrder, ifdOffset uint32, tag uint16) (uint32, bool) {
	if int(ifdOffset)+2 > len(tiff) {
		return 0, false
	}
	count := int(order.u16(tiff[ifdOffset : ifdOffset+2]))
	for i := 0; i < count; i++ {
		entry := int(ifdOffset) + 2 + i*12
		if entry+12 > len(tiff) {
			return 0, false
		}
		if order.u16(tiff[entry:entry+2]) == tag {
			return order.u32(tiff[entry+8 : entry+12]), true
		}
	}
	return 0, false
}

// parseGPSIFD 解析 GPS IFD 的半球引用和坐标有理数
func parseGPSIFD(tiff []byte, order byteOrder, ifdOffset uint32) (Coordinates, bool) {
	if int(ifdOffset)+2 > len(tiff) {
		return Coordinates{}, false
	}

	var (
		latRef, lonRef byte
		lat, lon       [3]Rational
		hasLat, hasLon bool
	)

	count := int(order.u16(tiff[ifdOffset : ifdOffset+2]))
	for i := 0; i < count; i++ {
		entry := int(ifdOffset) + 2 + i*12
		if entry+12 > len(tiff) {
			return Coordinates{}, false
		}
		tag := order.u16(tiff[entry : entry+2])

		switch tag {
		case tagGPSLatitudeRef:
			latRef = tiff[entry+8]
		case tagGPSLongitudeRef:
			lonRef = tiff[entry+8]
		case tagGPSLatitude:
			if r, ok := readRationals(tiff, order, order.u32(tiff[entry+8:entry+12])); ok {
				lat, hasLat = r, true
			}
		case tagGPSLongitude:
			if r, ok := readRationals(tiff, order, order.u32(tiff[entry+8:entry+12])); ok {
				lon, hasLon = r, true
			}
		}
	}

	if !hasLat || !hasLon {
		return Coordinates{}, false
	}

	return Coordinates{
		Latitude:  fromDMS(lat, latRef),
		Longitude: fromDMS(lon, lonRef),
	}, true
}

// readRationals 从数据区读三个有理数对
func readRationals(tiff []byte, order byteOrder, offset uint32) ([3]Rational, bool) {
	var out [3]Rational
	if int(offset)+24 > len(tiff) {
		return out, false
	}
	for i := 0; i < 3; i++ {
		base := int(offset) + i*8
		out[i] = Rational{
			Num: order.u32(tiff[base : base+4]),
			Den: order.u32(tiff[base+4 : base+8]),
		}
	}
	return out, true
}
