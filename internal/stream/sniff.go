package stream

import (
	"bufio"
	"io"
	"strings"
)

const headEnd = "</head>"

// HeadSniffer 累积完整的原始字节，并把每个字节按 Latin-1 直接扩展为字符追加到头部文本，
// 直到头部文本以 </head>（不区分大小写）结尾为止。之后的字节只进入原始缓冲区。
type HeadSniffer struct {
	raw      []byte
	head     strings.Builder
	tail     [len(headEnd)]byte
	tailLen  int
	complete bool
}

// ReadFrom 逐字节读取 r 直至 EOF。非 EOF 错误原样返回，已读字节仍保留。
func (s *HeadSniffer) ReadFrom(r io.Reader) (int64, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	var n int64
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
		s.WriteByte(b)
	}
}

// WriteByte 追加单个字节。
func (s *HeadSniffer) WriteByte(b byte) error {
	s.raw = append(s.raw, b)
	if s.complete {
		return nil
	}
	s.head.WriteRune(rune(b))
	s.push(b)
	s.complete = s.endsWithHead()
	return nil
}

func (s *HeadSniffer) push(b byte) {
	if s.tailLen < len(s.tail) {
		s.tail[s.tailLen] = b
		s.tailLen++
		return
	}
	copy(s.tail[:], s.tail[1:])
	s.tail[len(s.tail)-1] = b
}

func (s *HeadSniffer) endsWithHead() bool {
	if s.tailLen < len(s.tail) {
		return false
	}
	return strings.EqualFold(string(s.tail[:]), headEnd)
}

// Bytes 返回完整的原始字节。
func (s *HeadSniffer) Bytes() []byte { return s.raw }

// Head 返回头部文本（至多到 </head> 为止）。
func (s *HeadSniffer) Head() string { return s.head.String() }

// HeadComplete 表示头部文本是否已经停止增长。
func (s *HeadSniffer) HeadComplete() bool { return s.complete }
