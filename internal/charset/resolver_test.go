package charset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func fixed(name string) Detector {
	return DetectorFunc(func([]byte, string) string { return name })
}

func TestResolve_HeaderAndMetaAgree(t *testing.T) {
	r := NewResolver(fixed("windows-1252"))
	res := r.Resolve(Input{
		Head:        `<html><head><meta charset="utf-8"></head>`,
		ContentType: "text/html; charset=UTF-8",
	})
	assert.Equal(t, "utf-8", res.Name)
	assert.Equal(t, SourceHeaderAndMeta, res.Source)
}

func TestResolve_DetectorAgreesWithMeta(t *testing.T) {
	r := NewResolver(fixed("GBK"))
	res := r.Resolve(Input{Head: `<head><meta charset="GBK"></head>`})
	assert.Equal(t, "gbk", res.Name)
	assert.Equal(t, SourceDetectorAgrees, res.Source)
	assert.Equal(t, Candidates{Meta: "GBK", Detected: "GBK"}, res.Candidates)
}

func TestResolve_FallbackRungs(t *testing.T) {
	head := `<meta charset="euc-kr">`
	ct := "text/html; charset=shift_jis"

	cases := []struct {
		name     string
		detector Detector
		head     string
		ct       string
		want     string
		source   Source
	}{
		{"detector first", fixed("big5"), head, ct, "big5", SourceDetector},
		{"then header", fixed(""), head, ct, "shift_jis", SourceHeader},
		{"then meta", fixed(""), head, "", "euc-kr", SourceMeta},
		{"then default", fixed(""), "", "", "utf-8", SourceDefault},
		{"nil detector", nil, "", "text/plain", "utf-8", SourceDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewResolver(tc.detector).Resolve(Input{Head: tc.head, ContentType: tc.ct})
			assert.Equal(t, tc.want, res.Name)
			assert.Equal(t, tc.source, res.Source)
		})
	}
}

func TestResolve_HintBeatsSingleSignals(t *testing.T) {
	r := NewResolver(fixed("big5"))
	in := Input{
		Head:        `<meta charset="euc-kr">`,
		ContentType: "text/html; charset=shift_jis",
		Hint:        "GB2312",
	}
	res := r.Resolve(in)
	assert.Equal(t, "gbk", res.Name)
	assert.Equal(t, SourceHint, res.Source)

	in.Hint = "klingon-8"
	res = r.Resolve(in)
	assert.Equal(t, "big5", res.Name)
	assert.Equal(t, SourceDetector, res.Source)
}

func TestResolve_AgreementStillWinsOverHint(t *testing.T) {
	r := NewResolver(fixed(""))
	res := r.Resolve(Input{
		Head:        `<meta charset="utf-8">`,
		ContentType: "text/html; charset=utf-8",
		Hint:        "gbk",
	})
	assert.Equal(t, "utf-8", res.Name)
}

func TestResolve_UnresolvableNamesFallThrough(t *testing.T) {
	r := NewResolver(fixed("IBM420_rtl"))
	res := r.Resolve(Input{
		Head:        `<meta charset="x-made-up">`,
		ContentType: "text/html; charset=x-made-up",
	})
	assert.Equal(t, "utf-8", res.Name)
	assert.Equal(t, SourceDefault, res.Source)

	res = r.Resolve(Input{
		Head:        `<meta charset="x-made-up">`,
		ContentType: "text/html; charset=iso-8859-2",
	})
	assert.Equal(t, "iso-8859-2", res.Name)
	assert.Equal(t, SourceHeader, res.Source)
}

func TestResolve_ForcedIgnoresSignals(t *testing.T) {
	called := false
	r := NewResolver(DetectorFunc(func([]byte, string) string {
		called = true
		return "utf-8"
	}))
	res := r.Resolve(Input{
		Head:        `<meta charset="utf-8">`,
		ContentType: "text/html; charset=utf-8",
		Forced:      simplifiedchinese.GB18030,
	})
	assert.Equal(t, SourceForced, res.Source)
	assert.Equal(t, "gb18030", res.Name)
	assert.False(t, called)
}

func TestResolution_DecodeWholeBuffer(t *testing.T) {
	raw := []byte{0xd6, 0xd0, 0xce, 0xc4}
	res := NewResolver(nil).Resolve(Input{ContentType: "text/html; charset=gbk"})
	text, err := res.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "中文", text)
}

func TestMetaCharset(t *testing.T) {
	cases := []struct{ head, want string }{
		{`<meta charset="utf-8">`, "utf-8"},
		{`<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=GB2312">`, "GB2312"},
		{`<?xml version="1.0" encoding="gb2312"?><rss>`, "gb2312"},
		{"<meta\nname=x><meta charset=big5>", "big5"},
		{`<title>no declaration</title>`, ""},
		{``, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MetaCharset(c.head), c.head)
	}
}

func TestHeaderCharset(t *testing.T) {
	cases := []struct{ ct, want string }{
		{"text/html; charset=UTF-8", "utf-8"},
		{"text/html;charset=GBK", "gbk"},
		{`text/html; charset="big5"`, "big5"},
		{"text/html; charset=gbk; foo=1", "gbk"},
		{"text/html", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HeaderCharset(c.ct), c.ct)
	}
}

func TestChardetDetector(t *testing.T) {
	d := NewChardetDetector()
	assert.Equal(t, "", d.Detect(nil, "zh"))

	utf8Text := []byte(strings.Repeat("中华人民共和国成立于一九四九年，这是一个用于编码识别的测试句子。", 20))
	assert.Equal(t, "UTF-8", d.Detect(utf8Text, "zh"))

	gbkText, err := simplifiedchinese.GBK.NewEncoder().Bytes(utf8Text)
	require.NoError(t, err)
	assert.Equal(t, "GB-18030", d.Detect(gbkText, "zh"))
}
