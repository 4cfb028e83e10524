// Package checkincode 负责项目签到串的编码、解析与二维码渲染。
//
// 签到串格式固定为 "<namespace>:<project_id>:<code>"，例如
// "umuganda_checkin:1:3f9c0a..."。编码后再解析必须得到同一 (project_id, code)。
package checkincode

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultNamespace 默认签到串前缀
	DefaultNamespace = "umuganda_checkin"

	separator    = ":"
	segmentCount = 3
)

// ErrMalformed 签到串格式错误（段数、前缀或项目 ID 不合法）
var ErrMalformed = errors.New("签到码格式错误")

// Payload 签到串解析结果
type Payload struct {
	ProjectID uint
	Code      string
}

// Codec 签到串编解码器，绑定一个固定前缀
type Codec struct {
	namespace string
}

// NewCodec 创建编解码器；namespace 为空时使用默认前缀
func NewCodec(namespace string) *Codec {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Codec{namespace: namespace}
}

// Namespace 返回固定前缀
func (c *Codec) Namespace() string { return c.namespace }

// Encode 生成签到串
func (c *Codec) Encode(projectID uint, code string) string {
	return c.namespace + separator + strconv.FormatUint(uint64(projectID), 10) + separator + code
}

// Parse 解析签到串。扫码端常带换行，首尾空白会被忽略。
func (c *Codec) Parse(raw string) (Payload, error) {
	parts := strings.Split(strings.TrimSpace(raw), separator)
	if len(parts) != segmentCount {
		return Payload{}, ErrMalformed
	}
	if parts[0] != c.namespace {
		return Payload{}, ErrMalformed
	}

	projectID, err := strconv.ParseUint(parts[1], 10, strconv.IntSize)
	if err != nil || projectID == 0 {
		return Payload{}, ErrMalformed
	}
	if parts[2] == "" {
		return Payload{}, ErrMalformed
	}

	return Payload{ProjectID: uint(projectID), Code: parts[2]}, nil
}

// Valid 仅校验形状，供请求参数绑定阶段使用
func (c *Codec) Valid(raw string) bool {
	_, err := c.Parse(raw)
	return err == nil
}

// NewCode 生成不透明的随机签到码（UUIDv4 去掉连字符，32 位十六进制）
func NewCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RenderPNG 将签到串渲染为二维码 PNG
func RenderPNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
