package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, platform, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeContentNotFound     = "CONTENT_NOT_FOUND"
	ErrCodeMetricsNotFound     = "METRICS_NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	ErrCodePlatformOperation   = "PLATFORM_OPERATION_FAILED"
	ErrCodeInvalidURL          = "INVALID_URL"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewContentNotFoundError はコンテンツ未検出エラーを生成する。
func NewContentNotFoundError(contentID int64) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("指定されたコンテンツが見つかりません: %d", contentID),
		Category: "content",
		Action:   "コンテンツIDを確認してください。",
	}
}

// NewMetricsNotFoundError はメトリクス未検出エラーを生成する。
func NewMetricsNotFoundError(contentID int64) *APIError {
	return &APIError{
		Code:     ErrCodeMetricsNotFound,
		Message:  fmt.Sprintf("コンテンツのメトリクスが見つかりません: %d", contentID),
		Category: "content",
		Action:   "メトリクス同期が完了しているか確認してください。",
	}
}

// NewValidationError は必須項目不足などの入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "必須項目（タイトル、プラットフォーム、コンテンツ識別子）を確認してください。",
	}
}

// NewUnsupportedPlatformError は未対応プラットフォームエラーを生成する。
// ベータプラットフォームはこのエラーの対象外（ゼロメトリクスを返す）。
func NewUnsupportedPlatformError(platform Platform) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedPlatform,
		Message:  fmt.Sprintf("未対応のプラットフォームです: %s", platform),
		Category: "platform",
		Action:   "対応プラットフォーム（YouTube、Medium、WordPress、Custom Website）を指定してください。",
	}
}

// NewPlatformOperationError はアダプター呼び出しやメトリクス永続化の失敗エラーを生成する。
// 元のエラーメッセージをそのまま保持する。
func NewPlatformOperationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePlatformOperation,
		Message:  fmt.Sprintf("プラットフォーム操作に失敗しました: %s", reason),
		Category: "platform",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
