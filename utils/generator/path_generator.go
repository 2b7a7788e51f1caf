package generator

import (
	"fmt"
	"strings"
	"time"
)

// 存储路径布局：
//   assets/<asset-id>/<unix-ms>.jpg   证据原图，按资产隔离命名空间
//   previews/<asset-id>.jpg           预览图，接受新证据时覆盖写
const (
	assetsDir   = "assets"
	previewsDir = "previews"
)

// AssetPrefix 返回资产的证据对象前缀
func AssetPrefix(assetID string) string {
	return fmt.Sprintf("%s/%s/", assetsDir, assetID)
}

// EvidencePath 生成带时间戳的证据对象路径
//
// 同一资产的并发上传靠毫秒时间戳避免互相覆盖。
func EvidencePath(assetID string, uploadTime time.Time) string {
	return fmt.Sprintf("%s/%s/%d.jpg", assetsDir, assetID, uploadTime.UnixMilli())
}

// PreviewPath 生成资产预览图路径
func PreviewPath(assetID string) string {
	return fmt.Sprintf("%s/%s.jpg", previewsDir, assetID)
}

// ParseEvidencePath 校验并拆解证据路径，返回资产 ID 和对象文件名
func ParseEvidencePath(objectPath string) (assetID, name string, ok bool) {
	parts := strings.Split(objectPath, "/")
	if len(parts) != 3 || parts[0] != assetsDir || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	if parts[1] == ".." || parts[2] == ".." {
		return "", "", false
	}
	return parts[1], parts[2], true
}
