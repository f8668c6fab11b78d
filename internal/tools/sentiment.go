package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sentimentClientTimeout    = 30 * time.Second
	sentimentMaxResponseBytes = 1 << 20
)

// ErrNoLabel 表示分类器返回了空结果
var ErrNoLabel = errors.New("classifier returned no label")

// Sentiment 是一次情感分析的结果，Stars 取值 1..5
type Sentiment struct {
	Stars       int     `json:"stars"`
	BinaryLabel string  `json:"binary_label"`
	Score       float64 `json:"score"`
}

// Label 是分类器输出的一个候选标签，例如 {"4 stars", 0.61}
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier 对文本做星级分类，返回得分最高的标签
type Classifier interface {
	Classify(ctx context.Context, text string) (Label, error)
}

type SentimentAnalyzer struct {
	Classifier Classifier
}

// Analyze 先清理空白；空文本直接返回 {3, NEUTRAL, 0}，不调用分类器
func (a *SentimentAnalyzer) Analyze(ctx context.Context, text string) (Sentiment, *ErrorRecord) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return Sentiment{Stars: 3, BinaryLabel: "NEUTRAL", Score: 0}, nil
	}

	lbl, err := a.Classifier.Classify(ctx, cleaned)
	if err != nil {
		return Sentiment{}, newError(KindClassifierError, err)
	}
	stars, binary, ok := StarsToBinary(lbl.Label)
	if !ok {
		return Sentiment{}, &ErrorRecord{Kind: KindClassifierError, Message: fmt.Sprintf("unexpected label %q", lbl.Label)}
	}
	return Sentiment{Stars: stars, BinaryLabel: binary, Score: lbl.Score}, nil
}

// HFClassifier 调用 Hugging Face Inference API 上的星级情感模型
type HFClassifier struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewHFClassifier(url, token string) *HFClassifier {
	return &HFClassifier{URL: url, Token: token, Client: &http.Client{Timeout: sentimentClientTimeout}}
}

func (h *HFClassifier) Classify(ctx context.Context, text string) (Label, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs":     text,
		"parameters": map[string]any{"truncation": true},
	})
	if err != nil {
		return Label{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(payload))
	if err != nil {
		return Label{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return Label{}, fmt.Errorf("sentiment: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, sentimentMaxResponseBytes))
	if err != nil {
		return Label{}, fmt.Errorf("sentiment: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Label{}, fmt.Errorf("sentiment: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return bestLabel(body)
}

// bestLabel 兼容 [[{...}]] 与 [{...}] 两种返回形状
func bestLabel(body []byte) (Label, error) {
	var labels []Label
	var nested [][]Label
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		labels = nested[0]
	} else if err := json.Unmarshal(body, &labels); err != nil {
		return Label{}, fmt.Errorf("sentiment: decode body: %w", err)
	}
	if len(labels) == 0 {
		return Label{}, ErrNoLabel
	}
	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return best, nil
}
