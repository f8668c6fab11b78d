package tools

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFPages 读取 PDF，每页返回一段清理过空白的文本；无法提取文字的页返回空串
func PDFPages(path string) (pages []string, rec *ErrorRecord) {
	// 解析库遇到损坏文件会 panic
	defer func() {
		if r := recover(); r != nil {
			pages, rec = nil, &ErrorRecord{Kind: KindPDFError, Message: fmt.Sprint(r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, newError(KindPDFError, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, newError(KindPDFError, fmt.Errorf("page %d: %w", i, err))
		}
		pages = append(pages, CleanText(text))
	}
	return pages, nil
}
