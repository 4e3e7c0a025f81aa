package charset

import (
	"strings"

	"github.com/saintfish/chardet"
)

// Detector 为统计编码识别器：根据字节分布给出最可能的编码名，无法判断时返回空串。
// language 为可选的语系提示（如 "zh"）。
type Detector interface {
	Detect(raw []byte, language string) string
}

// DetectorFunc 让普通函数满足 Detector。
type DetectorFunc func(raw []byte, language string) string

func (f DetectorFunc) Detect(raw []byte, language string) string { return f(raw, language) }

// ChardetDetector 基于 saintfish/chardet（ICU 移植）实现 Detector。
type ChardetDetector struct {
	// HTML 为 true 时先剥离标签再统计。
	HTML bool
	// MinConfidence 为采用语系提示候选时的最低置信度。
	MinConfidence int
}

// NewChardetDetector 创建默认参数的识别器。
func NewChardetDetector() *ChardetDetector {
	return &ChardetDetector{HTML: true, MinConfidence: 10}
}

// Detect 返回置信度最高的编码；若最佳结果属于其他语系，且提示语系下存在
// 达到 MinConfidence 的候选，则改用该候选。
func (d *ChardetDetector) Detect(raw []byte, language string) string {
	if len(raw) == 0 {
		return ""
	}
	det := chardet.NewTextDetector()
	if d.HTML {
		det = chardet.NewHtmlDetector()
	}
	results, err := det.DetectAll(raw)
	if err != nil || len(results) == 0 {
		return ""
	}
	best := results[0]
	if language == "" || best.Language == "" || strings.EqualFold(best.Language, language) {
		return best.Charset
	}
	for _, r := range results[1:] {
		if strings.EqualFold(r.Language, language) && r.Confidence >= d.MinConfidence {
			return r.Charset
		}
	}
	return best.Charset
}
