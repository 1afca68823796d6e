package events

import (
	"context"
	"time"
)

// Kind 是资金变动事件的种类。
type Kind string

const (
	KindTransfer Kind = "transfer"
	KindSwap     Kind = "swap"
)

// Event 描述一次已提交的资金变动，发布到事件流供审计消费。
type Event struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	UserID     string `json:"user_id"`
	Token      string `json:"token"`
	ToToken    string `json:"to_token,omitempty"`
	AmountBase string `json:"amount_base"`
	Recipient  string `json:"recipient,omitempty"`
	MessageID  string `json:"message_id"`
	OccurredAt int64  `json:"occurred_at"`
}

// Publisher 把事件投递到外部流。发布失败不得阻塞业务路径，
// 由实现自行记录。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher 丢弃所有事件，是未配置事件流时的默认实现。
type NopPublisher struct{}

// Publish 实现 Publisher 接口。
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close 实现 Publisher 接口。
func (NopPublisher) Close() error { return nil }

// Stamp 补齐事件的发生时间。
func Stamp(event *Event) {
	if event.OccurredAt == 0 {
		event.OccurredAt = time.Now().Unix()
	}
}
