package tools

import (
	"strconv"
	"strings"
)

// 错误类型，对应 ErrorRecord.Kind
const (
	KindMissingAPIKey   = "MISSING_API_KEY"
	KindHTTPError       = "HTTP_ERROR"
	KindNewsAPIError    = "NEWSAPI_ERROR"
	KindClassifierError = "CLASSIFIER_ERROR"
	KindPDFError        = "PDF_ERROR"
)

// ErrorRecord 是工具调用失败时代替结果返回的结构化错误
type ErrorRecord struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *ErrorRecord) Error() string {
	return e.Kind + ": " + e.Message
}

func newError(kind string, err error) *ErrorRecord {
	return &ErrorRecord{Kind: kind, Message: err.Error()}
}

// CleanText 把连续空白折叠为单个空格并去掉首尾空白
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StarsToBinary 把 "N stars" 形式的标签映射为 NEGATIVE / NEUTRAL / POSITIVE
func StarsToBinary(label string) (int, string, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return 0, "", false
	}
	stars, err := strconv.Atoi(label[:1])
	if err != nil || stars < 1 || stars > 5 {
		return 0, "", false
	}
	switch {
	case stars <= 2:
		return stars, "NEGATIVE", true
	case stars == 3:
		return stars, "NEUTRAL", true
	default:
		return stars, "POSITIVE", true
	}
}
