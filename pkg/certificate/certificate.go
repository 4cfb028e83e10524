// Package certificate 渲染参与证书 PDF。
//
// 版式：A4 纵向，双色外框，顶部左右两枚徽记，国家与项目抬头，
// "CERTIFICATE OF PARTICIPATION" 标题，获得者姓名，项目说明，日期，
// 负责人签名线，右下角为证书编号二维码（用于线下核验）。
package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrIncompleteDocument 证书字段缺失
var ErrIncompleteDocument = errors.New("证书信息不完整")

// Document 单张证书需要的全部展示数据
type Document struct {
	Number        string
	RecipientName string
	ProjectTitle  string
	ProjectDate   time.Time
	LeaderName    string
	VerifyContent string // 二维码内容；为空时使用证书编号
}

// Layout 证书固定文案
type Layout struct {
	Country      string
	Programme    string
	SignatureFor string
}

// DefaultLayout 默认文案
func DefaultLayout() Layout {
	return Layout{
		Country:      "REPUBLIC OF RWANDA",
		Programme:    "UMUGANDA - National Community Service Program",
		SignatureFor: "Local Authority / Community Leader",
	}
}

// Renderer PDF 渲染器
type Renderer struct {
	layout Layout
}

// NewRenderer 创建渲染器；空字段回落到默认文案
func NewRenderer(layout Layout) *Renderer {
	def := DefaultLayout()
	if layout.Country == "" {
		layout.Country = def.Country
	}
	if layout.Programme == "" {
		layout.Programme = def.Programme
	}
	if layout.SignatureFor == "" {
		layout.SignatureFor = def.SignatureFor
	}
	return &Renderer{layout: layout}
}

// FileName 证书文件名（同一 user/project 固定，重复渲染会覆盖同一文件）
func FileName(userID, projectID uint) string {
	return fmt.Sprintf("certificates/certificate_%d_%d.pdf", userID, projectID)
}

// Render 生成 PDF 字节
func (r *Renderer) Render(doc Document) ([]byte, error) {
	if doc.Number == "" || doc.RecipientName == "" || doc.ProjectTitle == "" {
		return nil, ErrIncompleteDocument
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Certificate "+doc.Number, true)
	pdf.SetCreator("umuganda", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, height := pdf.GetPageSize()
	const inch = 72.0

	// 外框
	pdf.SetDrawColor(0, 100, 0)
	pdf.SetLineWidth(4)
	pdf.Rect(30, 30, width-60, height-60, "D")

	// 左右徽记（占位图形）
	r.drawSeal(pdf, 60+0.6*inch, 1.2*inch)
	r.drawCommunityMark(pdf, width-60-0.6*inch, 1.2*inch)

	centered := func(y float64, family, style string, size float64, text string) {
		pdf.SetFont(family, style, size)
		pdf.SetXY(0, y)
		pdf.CellFormat(width, size+4, tr(text), "", 0, "C", false, 0, "")
	}

	// 抬头
	pdf.SetTextColor(0, 0, 0)
	centered(1.0*inch-8, "Helvetica", "B", 16, r.layout.Country)
	centered(1.3*inch-6, "Helvetica", "", 13, r.layout.Programme)

	// 标题
	pdf.SetTextColor(125, 10, 10)
	centered(2.5*inch, "Helvetica", "B", 28, "CERTIFICATE OF PARTICIPATION")
	pdf.SetTextColor(0, 0, 0)

	// 获得者
	centered(3.7*inch, "Helvetica", "B", 22, doc.RecipientName)

	// 正文
	lines := []string{
		fmt.Sprintf("This certificate is proudly presented to %s,", doc.RecipientName),
		"for actively contributing to Umuganda and supporting community development",
		fmt.Sprintf("through the project: %s.", doc.ProjectTitle),
	}
	for i, line := range lines {
		centered(4.7*inch+float64(i)*18, "Helvetica", "", 14, line)
	}

	if !doc.ProjectDate.IsZero() {
		centered(6.2*inch, "Helvetica", "I", 12, "Date: "+doc.ProjectDate.Format("January 02, 2006"))
	}

	centered(7.5*inch, "Helvetica", "B", 12, r.layout.Country)

	// 签名线
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(width/3, 8.5*inch, 2*width/3, 8.5*inch)
	if doc.LeaderName != "" {
		centered(8.6*inch, "Helvetica", "", 12, doc.LeaderName)
	}
	centered(8.9*inch, "Helvetica", "", 10, r.layout.SignatureFor)

	// 核验二维码 + 编号
	verify := doc.VerifyContent
	if verify == "" {
		verify = doc.Number
	}
	qrPNG, err := framedQR(verify, 220)
	if err != nil {
		return nil, err
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qrPNG))
	qrSide := 1.1 * inch
	pdf.ImageOptions("verify-qr", width-60-qrSide-10, height-60-qrSide-24, qrSide, qrSide, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(width-60-qrSide-30, height-60-20)
	pdf.CellFormat(qrSide+30, 10, tr("No. "+doc.Number), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成证书 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawSeal(pdf *fpdf.Fpdf, cx, cy float64) {
	pdf.SetLineWidth(3)
	pdf.SetDrawColor(0, 166, 81)
	pdf.Circle(cx, cy, 40, "D")
	pdf.SetFillColor(0, 161, 222)
	pdf.SetDrawColor(0, 100, 0)
	pdf.SetLineWidth(1.5)
	pdf.Circle(cx, cy, 26, "FD")
	pdf.SetFillColor(250, 210, 1)
	pdf.Circle(cx, cy, 8, "F")
}

func (r *Renderer) drawCommunityMark(pdf *fpdf.Fpdf, cx, cy float64) {
	pdf.SetFillColor(0, 166, 81)
	pdf.SetDrawColor(0, 100, 0)
	pdf.SetLineWidth(2)
	pdf.Circle(cx, cy, 40, "FD")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(cx-20, cy-14)
	pdf.CellFormat(40, 28, "U", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// framedQR 生成带白边的二维码 PNG；go-qrcode 自带静区较窄，嵌入 PDF 前统一加边框
func framedQR(content string, side int) ([]byte, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("生成核验二维码失败: %w", err)
	}
	q.DisableBorder = true

	inner := imaging.Resize(q.Image(side), side*9/10, side*9/10, imaging.NearestNeighbor)
	canvas := imaging.New(side, side, color.White)
	framed := imaging.PasteCenter(canvas, inner)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, framed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("编码核验二维码失败: %w", err)
	}
	return buf.Bytes(), nil
}
