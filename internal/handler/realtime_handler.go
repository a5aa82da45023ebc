package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contentpulse/internal/middleware"
	"github.com/hitoshi/contentpulse/internal/model"
	"github.com/hitoshi/contentpulse/internal/realtime"
)

// RealtimeTriggerInterface は分析更新の手動トリガーインターフェース。
type RealtimeTriggerInterface interface {
	// TriggerPlatformUpdate はプラットフォーム集計を即時配信する。
	TriggerPlatformUpdate(ctx context.Context, p model.Platform) error
	// TriggerContentUpdate はコンテンツ1件の指標を即時配信する。
	TriggerContentUpdate(ctx context.Context, contentID int64) error
}

// StreamSubscriberInterface は配信トピックの購読インターフェース。
type StreamSubscriberInterface interface {
	// Subscribe は指定トピックの購読チャネルを返す。
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// RealtimeHandler はリアルタイム配信のHTTPハンドラー。
// 手動トリガーとServer-Sent Eventsによる購読ストリームを提供する。
type RealtimeHandler struct {
	trigger    RealtimeTriggerInterface
	subscriber StreamSubscriberInterface
}

// NewRealtimeHandler はRealtimeHandlerを生成する。
func NewRealtimeHandler(trigger RealtimeTriggerInterface, subscriber StreamSubscriberInterface) *RealtimeHandler {
	return &RealtimeHandler{
		trigger:    trigger,
		subscriber: subscriber,
	}
}

// TriggerPlatformUpdate はプラットフォーム集計の即時配信を処理する。
// 変更の有無にかかわらず必ず配信する。
// POST /api/realtime/platforms/{platform}/trigger
func (h *RealtimeHandler) TriggerPlatformUpdate(w http.ResponseWriter, r *http.Request) {
	p := model.Platform(chi.URLParam(r, "platform"))

	if err := h.trigger.TriggerPlatformUpdate(r.Context(), p); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TriggerContentUpdate はコンテンツ1件の即時配信を処理する。
// POST /api/realtime/contents/{id}/trigger
func (h *RealtimeHandler) TriggerContentUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := contentIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.trigger.TriggerContentUpdate(r.Context(), id); err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stream は分析更新のSSEストリームを処理する。
// クエリパラメータで購読トピックを指定する:
//
//	?platform=youtube                 プラットフォーム集計
//	?platform=youtube&contents=true   プラットフォーム配下のコンテンツ更新
//	?contentId=5                      コンテンツ1件の更新
//
// GET /api/realtime/stream
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	topic, err := streamTopicFromQuery(r)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteInternalServerError(w)
		return
	}

	messages, err := h.subscriber.Subscribe(r.Context(), topic)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-messages:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg.Payload)
			flusher.Flush()
			msg.Ack()
		}
	}
}

// streamTopicFromQuery はクエリパラメータから購読トピックを決定する。
func streamTopicFromQuery(r *http.Request) (string, error) {
	q := r.URL.Query()

	if raw := q.Get("contentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return "", model.NewValidationError("コンテンツIDが不正です")
		}
		return realtime.ContentTopic(id), nil
	}

	if raw := q.Get("platform"); raw != "" {
		p := model.Platform(raw)
		if !p.IsValid() {
			return "", model.NewUnsupportedPlatformError(p)
		}
		if q.Get("contents") == "true" {
			return realtime.PlatformContentsTopic(p), nil
		}
		return realtime.PlatformTopic(p), nil
	}

	return "", model.NewValidationError("platformまたはcontentIdの指定が必要です")
}
