package model

// Platform はコンテンツの取得元プラットフォームを表す。
type Platform string

const (
	// PlatformYouTube はYouTube動画を示す。
	PlatformYouTube Platform = "youtube"
	// PlatformMedium はMedium記事を示す。
	PlatformMedium Platform = "medium"
	// PlatformWordPress はWordPress投稿を示す。
	PlatformWordPress Platform = "wordpress"
	// PlatformCustomWebsite は汎用Webサイトのページを示す。
	PlatformCustomWebsite Platform = "custom_website"

	// 以下は将来対応予定のベータプラットフォーム。
	// アダプターが存在しないため、メトリクスは常にゼロとなる。

	// PlatformInstagramBeta はInstagram（対応予定）を示す。
	PlatformInstagramBeta Platform = "instagram_beta"
	// PlatformTwitterBeta はTwitter（対応予定）を示す。
	PlatformTwitterBeta Platform = "twitter_beta"
	// PlatformLinkedInBeta はLinkedIn（対応予定）を示す。
	PlatformLinkedInBeta Platform = "linkedin_beta"
	// PlatformTikTokBeta はTikTok（対応予定）を示す。
	PlatformTikTokBeta Platform = "tiktok_beta"
)

// AllPlatforms は定義済みの全プラットフォームを返す。
func AllPlatforms() []Platform {
	return []Platform{
		PlatformYouTube,
		PlatformMedium,
		PlatformWordPress,
		PlatformCustomWebsite,
		PlatformInstagramBeta,
		PlatformTwitterBeta,
		PlatformLinkedInBeta,
		PlatformTikTokBeta,
	}
}

// ActivePlatforms はベータを除く実装済みプラットフォームを返す。
func ActivePlatforms() []Platform {
	return []Platform{
		PlatformYouTube,
		PlatformMedium,
		PlatformWordPress,
		PlatformCustomWebsite,
	}
}

// IsBeta はベータプラットフォームかどうかを返す。
func (p Platform) IsBeta() bool {
	switch p {
	case PlatformInstagramBeta, PlatformTwitterBeta, PlatformLinkedInBeta, PlatformTikTokBeta:
		return true
	}
	return false
}

// IsValid は定義済みのプラットフォームかどうかを返す。
func (p Platform) IsValid() bool {
	switch p {
	case PlatformYouTube, PlatformMedium, PlatformWordPress, PlatformCustomWebsite:
		return true
	}
	return p.IsBeta()
}

// DisplayName はUI表示用のプラットフォーム名を返す。
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformMedium:
		return "Medium"
	case PlatformWordPress:
		return "WordPress"
	case PlatformCustomWebsite:
		return "Custom Website"
	case PlatformInstagramBeta:
		return "Instagram (Coming Soon)"
	case PlatformTwitterBeta:
		return "Twitter (Coming Soon)"
	case PlatformLinkedInBeta:
		return "LinkedIn (Coming Soon)"
	case PlatformTikTokBeta:
		return "TikTok (Coming Soon)"
	}
	return string(p)
}
