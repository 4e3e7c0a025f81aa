// 包 stream 负责响应体的字节流处理：
// - Decompress：按 Content-Encoding 选择 gzip/deflate 解压或直通
// - HeadSniffer：逐字节读取全文，同时截取 </head> 之前的文本用于编码声明扫描
package stream

import (
	"bufio"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// Decompress 根据 contentEncoding（不区分大小写）包装原始响应流。
// 返回的 ReadCloser 只关闭解压器本身，不关闭 r；r 由调用方负责释放。
func Decompress(r io.Reader, contentEncoding string) (io.ReadCloser, error) {
	var br *bufio.Reader
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		br = bufio.NewReader(r)
		if empty(br) {
			return io.NopCloser(br), nil
		}
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "gzip header")
		}
		return zr, nil
	case "deflate":
		br = bufio.NewReader(r)
		if empty(br) {
			return io.NopCloser(br), nil
		}
		return newDeflateReader(br)
	default:
		return io.NopCloser(r), nil
	}
}

// empty 表示流中没有任何字节（如 204 或声明了压缩的空响应），此时按空内容处理。
func empty(br *bufio.Reader) bool {
	_, err := br.Peek(1)
	return err == io.EOF
}

// newDeflateReader 默认按裸 deflate 解码；若开头两个字节是合法的 zlib 头则按 zlib 解码。
func newDeflateReader(br *bufio.Reader) (io.ReadCloser, error) {
	if head, err := br.Peek(2); err == nil && isZlibHeader(head[0], head[1]) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "zlib header")
		}
		return zr, nil
	}
	return flate.NewReader(br), nil
}

// isZlibHeader 检查 CMF/FLG：压缩方法为 8，窗口不超过 32K，且 (CMF*256+FLG) 可被 31 整除。
func isZlibHeader(cmf, flg byte) bool {
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}
