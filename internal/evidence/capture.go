package evidence

import (
	"errors"
	"fmt"

	"github.com/authenx/evidence-hub/internal/geotag"
)

// SourceKind 证据采集来源
type SourceKind string

const (
	// SourceCamera 实时相机帧，坐标随拍摄设备显式给出
	SourceCamera SourceKind = "camera"
	// SourceGallery 相册文件，优先使用文件内嵌的位置元数据
	SourceGallery SourceKind = "gallery"
	// SourceDrop 拖拽上传的文件
	SourceDrop SourceKind = "drop"
)

// ErrEmptyCapture 没有图片数据
var ErrEmptyCapture = errors.New("evidence: capture has no image data")

// Capture 一次证据采集输入
type Capture struct {
	Source      SourceKind
	FileName    string
	Data        []byte
	Coordinates *geotag.Coordinates // 显式坐标，相机采集时给出
}

// Validate 在任何网络调用之前做输入校验
func (c *Capture) Validate() error {
	if len(c.Data) == 0 {
		return ErrEmptyCapture
	}
	switch c.Source {
	case SourceCamera, SourceGallery, SourceDrop:
		return nil
	default:
		return fmt.Errorf("evidence: unknown capture source %q", c.Source)
	}
}

// ResolveCoordinates 解析采集的有效坐标
//
// 显式坐标优先；相册文件回退到内嵌的 EXIF 位置；拖拽文件同样
// 尝试读内嵌元数据。拿不到坐标不是错误，证据照常入库但不带位置。
func (c *Capture) ResolveCoordinates() *geotag.Coordinates {
	if c.Coordinates != nil && !c.Coordinates.IsZero() {
		return c.Coordinates
	}

	if c.Source == SourceGallery || c.Source == SourceDrop {
		if coords, found, err := geotag.Extract(c.Data); err == nil && found && !coords.IsZero() {
			return &coords
		}
	}

	return nil
}
