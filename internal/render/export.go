package render

import (
	"context"
	"fmt"

	"resumeForge/internal/database"
)

// 支持的导出格式。
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatTXT  = "txt"
)

// ContentType 返回格式对应的 MIME 类型。
func ContentType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ValidFormat 判断格式是否受支持。
func ValidFormat(format string) bool {
	switch format {
	case FormatPDF, FormatDOCX, FormatTXT:
		return true
	}
	return false
}

// PDFEngine 把 HTML 打印为 PDF 字节流。
// 实现位于 internal/pdf；调用方通过 ctx 施加超时，引擎自身不重试。
type PDFEngine interface {
	PrintHTML(ctx context.Context, html string) ([]byte, error)
}

// Exporter 是导出渲染器：同一遍历、按格式分派到 PDF/DOCX/纯文本后端。
type Exporter struct {
	engine  PDFEngine
	preview *Preview
	docx    *DOCX
	ats     *ATS
}

// NewExporter 构造导出渲染器。
func NewExporter(engine PDFEngine) (*Exporter, error) {
	preview, err := NewPreview()
	if err != nil {
		return nil, err
	}
	return &Exporter{
		engine:  engine,
		preview: preview,
		docx:    NewDOCX(),
		ats:     NewATS(),
	}, nil
}

// Export 渲染指定格式的字节输出。
// 调用是阻塞的，PDF 生成可能耗时较长；超时由 ctx 控制。
func (e *Exporter) Export(ctx context.Context, format string, resume database.Resume, sections []database.Section) ([]byte, []Warning, error) {
	doc := BuildDocument(resume, sections)
	switch format {
	case FormatPDF:
		html, warnings, err := e.preview.RenderDocument(doc)
		if err != nil {
			return nil, warnings, err
		}
		data, err := e.engine.PrintHTML(ctx, string(html))
		if err != nil {
			return nil, warnings, fmt.Errorf("print pdf: %w", err)
		}
		return data, warnings, nil
	case FormatDOCX:
		return e.docx.RenderDocument(doc)
	case FormatTXT:
		return e.ats.RenderDocument(doc)
	default:
		return nil, nil, fmt.Errorf("unsupported export format %q", format)
	}
}
