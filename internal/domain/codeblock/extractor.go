// Package codeblock はLLM応答テキストからソースコードを取り出す純粋関数群
package codeblock

import (
	"regexp"
	"strings"
)

const fence = "```"

// escapedNewline はトランスポート層でエスケープされた改行（バックスラッシュ + n）
const escapedNewline = `\n`

var (
	// 正規表現: ```\n内容\n```
	// (?s) フラグ: DOTALL モード（.が改行にもマッチ）
	reUntaggedFence = regexp.MustCompile(`(?s)` + fence + `\s*\n(.*?)\n` + fence)

	// 正規表現: ```タグ\n内容\n```（タグは空でもよい）
	reAnyFence = regexp.MustCompile(`(?s)` + fence + "([^\n`]*)\n(.*?)\n" + fence)
)

// Block はテキスト中のフェンス付きコードブロック
type Block struct {
	Language string // フェンス直後のタグ（なければ空）
	Code     string
}

// Extract は応答テキストからコードを取り出す。失敗しない
//
// 優先順位（最初に一致した規則を採用）:
//  1. 実改行がなくエスケープ改行だけを含む場合は改行に戻してから処理し、結果を再エスケープする
//  2. ```<language>\n...\n``` （language は正規表現としてエスケープ済み）
//  3. ```\n...\n```
//  4. 全体が ``` で始まり ``` で終わる場合は両端を外し、先頭行が language なら落とす
//  5. それ以外は前後の空白を除いたテキストそのもの
//
// 規則1のヒューリスティックは「モデルが本当に \n という文字列を出力した」場合と区別できない
func Extract(raw, language string) string {
	text := strings.TrimSpace(raw)

	escaped := hasOnlyEscapedNewlines(text)
	if escaped {
		text = strings.TrimSpace(strings.ReplaceAll(text, escapedNewline, "\n"))
	}

	result := extract(text, language)

	if escaped {
		return strings.ReplaceAll(result, "\n", escapedNewline)
	}
	return result
}

// extract は規則2〜5を適用（textはトリム済み）
func extract(text, language string) string {
	reLangFence := regexp.MustCompile(`(?s)` + fence + regexp.QuoteMeta(language) + `\s*\n(.*?)\n` + fence)
	if m := reLangFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := reUntaggedFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	if code, ok := stripLooseFence(text, language); ok {
		return code
	}

	return text
}

// stripLooseFence は ```code``` のように改行位置が崩れたフェンスを外す
func stripLooseFence(text, language string) (string, bool) {
	if !strings.HasPrefix(text, fence) || !strings.HasSuffix(text, fence) {
		return "", false
	}
	// "```" だけ、または前後のフェンスが重なる場合は中身なし
	if len(text) < 2*len(fence) {
		return "", true
	}

	inner := strings.TrimSpace(text[len(fence) : len(text)-len(fence)])
	if inner == "" {
		return "", true
	}

	lines := strings.Split(inner, "\n")
	if strings.ToLower(strings.TrimSpace(lines[0])) == strings.ToLower(language) {
		inner = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	return inner, true
}

// hasOnlyEscapedNewlines はエスケープ改行を含み実改行を含まないかを判定
func hasOnlyEscapedNewlines(text string) bool {
	return strings.Contains(text, escapedNewline) && !strings.Contains(text, "\n")
}

// FindAll はテキスト中のフェンス付きブロックを出現順にすべて返す
func FindAll(text string) []Block {
	matches := reAnyFence.FindAllStringSubmatch(text, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, Block{
			Language: strings.TrimSpace(m[1]),
			Code:     strings.TrimSpace(m[2]),
		})
	}
	return blocks
}
