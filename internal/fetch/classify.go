package fetch

import (
	"net"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	timeoutWords = []string{"超时", "timeout", "timed out", "deadline exceeded", "502"}
	dnsWords     = []string{"dns", "resolved", "no such host", "lookup "}
)

// Classify 按错误描述归类为 502/404/500 伪状态码，顺序固定：
// 超时或 502 → 502；DNS 相关 → 404；含 404 → 404；含 500 → 500；其余 → 500。
func Classify(desc string) int {
	msg := strings.ToLower(desc)
	switch {
	case containsAny(msg, timeoutWords):
		return http.StatusBadGateway
	case containsAny(msg, dnsWords):
		return http.StatusNotFound
	case strings.Contains(msg, "404"):
		return http.StatusNotFound
	case strings.Contains(msg, "500"):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// ClassifyError 先识别超时与 DNS 错误类型，再回退到 Classify(err.Error())。
func ClassifyError(err error) int {
	if err == nil {
		return 0
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return http.StatusBadGateway
		}
		return http.StatusNotFound
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusBadGateway
	}
	return Classify(err.Error())
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
