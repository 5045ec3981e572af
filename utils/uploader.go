package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// UploadConfig 上传配置
type UploadConfig struct {
	MaxFileSize    int64    // 最大文件大小（字节）
	AllowedFormats []string // 允许的文件格式
	UploadPath     string   // 上传路径
	PublicPrefix   string   // 对外访问前缀
}

// DefaultUploadConfig 默认上传配置
var DefaultUploadConfig = &UploadConfig{
	MaxFileSize:    10 * 1024 * 1024, // 10MB
	AllowedFormats: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
	UploadPath:     "./uploads",
	PublicPrefix:   "/uploads",
}

// UploadResult 上传结果
type UploadResult struct {
	URL      string `json:"url"`       // 对外访问的相对URL
	FileSize int64  `json:"file_size"` // 文件大小
	FileName string `json:"file_name"` // 文件名
}

// FileUploader 文件上传器
type FileUploader struct {
	config *UploadConfig
}

// NewFileUploader 创建文件上传器实例
func NewFileUploader(cfgs ...*UploadConfig) *FileUploader {
	cfg := DefaultUploadConfig
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	}
	return &FileUploader{config: cfg}
}

// UploadFile 上传单个文件，返回可写入数据库的相对URL
func (fu *FileUploader) UploadFile(c *gin.Context, fieldName string) (*UploadResult, error) {
	file, err := c.FormFile(fieldName)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return fu.saveFile(file)
}

// HasFile 判断请求里是否带了该字段的文件
func HasFile(c *gin.Context, fieldName string) bool {
	_, err := c.FormFile(fieldName)
	return err == nil
}

// saveFile 保存文件到磁盘
func (fu *FileUploader) saveFile(file *multipart.FileHeader) (*UploadResult, error) {
	// 验证文件大小
	if file.Size > fu.config.MaxFileSize {
		return nil, fmt.Errorf("file size exceeds maximum allowed size of %d bytes", fu.config.MaxFileSize)
	}

	// 验证文件格式
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !fu.isAllowedFormat(ext) {
		return nil, fmt.Errorf("file format %s is not allowed", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	// 生成文件名并创建目录
	fileName := generateFileName(ext)
	if err := os.MkdirAll(fu.config.UploadPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(fu.config.UploadPath, fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &UploadResult{
		URL:      fu.config.PublicPrefix + "/" + fileName,
		FileSize: file.Size,
		FileName: fileName,
	}, nil
}

// isAllowedFormat 检查文件格式是否允许
func (fu *FileUploader) isAllowedFormat(ext string) bool {
	for _, allowed := range fu.config.AllowedFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}

// generateFileName 生成文件名：时间戳+随机后缀
func generateFileName(ext string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), hex.EncodeToString(b), ext)
}
