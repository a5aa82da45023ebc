// Package content はコンテンツ登録・管理のドメインロジックを提供する。
package content

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は説明文サニタイズ機能のインターフェース。
// コンテンツ保存前に使用される。
type Sanitizer interface {
	// Sanitize は説明文をサニタイズして安全なHTMLを返す。
	// 許可タグのみを通過させ、script等の危険なタグとon*イベント属性を除去する。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// descriptionSanitizer はSanitizerの実装。
// bluemondayの許可リストベースのポリシーを保持し、スレッドセーフに動作する。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はSanitizerの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, strong, em, code
//   - aタグ: href属性のみ許可、target="_blank"とrel="noreferrer noopener"を強制付与
//   - 相対URLは不許可
func NewDescriptionSanitizer() *descriptionSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "ul", "ol", "li", "strong", "em", "code")

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &descriptionSanitizer{
		policy: p,
	}
}

// Sanitize は説明文をサニタイズして安全なHTMLを返す。
func (s *descriptionSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

var _ Sanitizer = (*descriptionSanitizer)(nil)
