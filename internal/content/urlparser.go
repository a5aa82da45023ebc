package content

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hitoshi/contentpulse/internal/model"
)

var (
	// youtubeWatchRe はwatch?v=形式のビデオIDを抽出する。
	youtubeWatchRe = regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`)
	// youtubePathRe はyoutu.be/・/shorts/・/embed/形式のビデオIDを抽出する。
	youtubePathRe = regexp.MustCompile(`(?:youtu\.be/|/shorts/|/embed/)([A-Za-z0-9_-]{11})`)
	// mediumHashRe はMediumのストーリーハッシュ（スラッグ末尾の16進値）を抽出する。
	mediumHashRe = regexp.MustCompile(`-([0-9a-f]{8,12})(?:\?|$)`)
	// mediumPPathRe はmedium.com/p/形式のストーリーハッシュを抽出する。
	mediumPPathRe = regexp.MustCompile(`medium\.com/p/([0-9a-f]{8,12})`)
	// wordpressPostIDRe は?p=形式の投稿IDを抽出する。
	wordpressPostIDRe = regexp.MustCompile(`[?&]p=(\d+)`)
)

// ParsedURL はURL解析の結果。
type ParsedURL struct {
	Platform          model.Platform
	ContentIdentifier string
}

// ParseContentURL は貼り付けられたURLからプラットフォームとコンテンツ識別子を
// 判定する。どのプラットフォームにも該当しない有効なURLはCustomWebsiteとして
// 扱い、URL全体を識別子とする。
func ParseContentURL(rawURL string) (*ParsedURL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, model.NewInvalidURLError("URLが空です")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, model.NewInvalidURLError("http/httpsスキームのみ対応しています")
	}
	if u.Host == "" {
		return nil, model.NewInvalidURLError("ホスト名がありません")
	}

	host := strings.ToLower(u.Hostname())

	if id, ok := parseYouTube(host, trimmed); ok {
		return &ParsedURL{Platform: model.PlatformYouTube, ContentIdentifier: id}, nil
	}
	if id, ok := parseMedium(host, trimmed); ok {
		return &ParsedURL{Platform: model.PlatformMedium, ContentIdentifier: id}, nil
	}
	if id, ok := parseWordPress(u, trimmed); ok {
		return &ParsedURL{Platform: model.PlatformWordPress, ContentIdentifier: id}, nil
	}

	return &ParsedURL{Platform: model.PlatformCustomWebsite, ContentIdentifier: trimmed}, nil
}

// parseYouTube はYouTubeのビデオIDを抽出する。
func parseYouTube(host, rawURL string) (string, bool) {
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return "", false
	}
	if m := youtubeWatchRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	if m := youtubePathRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	return "", false
}

// parseMedium はMediumのストーリーハッシュを抽出する。
func parseMedium(host, rawURL string) (string, bool) {
	if !strings.Contains(host, "medium.com") {
		return "", false
	}
	if m := mediumPPathRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	if m := mediumHashRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}
	return "", false
}

// parseWordPress はWordPressの投稿ID（?p=）またはパス末尾のスラッグを抽出する。
// WordPressサイトの判定はURL中のwp-content/wp-includes/wp-jsonの痕跡、
// または?p=形式の投稿IDによる。
func parseWordPress(u *url.URL, rawURL string) (string, bool) {
	if m := wordpressPostIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}

	lower := strings.ToLower(rawURL)
	isWordPress := strings.Contains(lower, "/wp-content/") ||
		strings.Contains(lower, "/wp-includes/") ||
		strings.Contains(lower, "/wp-json/") ||
		strings.Contains(strings.ToLower(u.Hostname()), "wordpress.com")
	if !isWordPress {
		return "", false
	}

	slug := strings.Trim(u.Path, "/")
	if slug == "" {
		return "", false
	}
	parts := strings.Split(slug, "/")
	return parts[len(parts)-1], true
}
