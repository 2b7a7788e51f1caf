package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStorage_DeleteSemantics 测试删除语义与其他提供者一致
//
// S3 对不存在的 key 返回删除成功，Delete 必须先探测对象存在性，
// 缺失时返回 ErrNotFound 而不是静默成功。
func TestMinioStorage_DeleteSemantics(t *testing.T) {
	var removeCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/evidence/assets/a1/missing.jpg":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodHead && r.URL.Path == "/evidence/assets/a1/present.jpg":
			w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			removeCalls++
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("test-access", "test-secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)

	store := &MinioStorage{
		client:     client,
		bucketName: "evidence",
		endpoint:   strings.TrimPrefix(srv.URL, "http://"),
	}

	// 不存在的对象返回 ErrNotFound，不触发 RemoveObject
	err = store.Delete(context.Background(), "assets/a1/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, removeCalls)

	// 存在的对象正常删除
	require.NoError(t, store.Delete(context.Background(), "assets/a1/present.jpg"))
	assert.Equal(t, 1, removeCalls)
}
