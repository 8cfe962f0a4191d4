package codec

import (
	"bytes"
	"sync"

	"github.com/palemoky/catch-the-ten/internal/protocol"
)

// pool 取出前重置对象的 sync.Pool
type pool[T any] struct {
	p     sync.Pool
	reset func(*T)
}

func newPool[T any](reset func(*T)) *pool[T] {
	return &pool[T]{
		p:     sync.Pool{New: func() any { return new(T) }},
		reset: reset,
	}
}

func (p *pool[T]) get() *T { return p.p.Get().(*T) }

func (p *pool[T]) put(v *T) {
	if v == nil {
		return
	}
	p.reset(v)
	p.p.Put(v)
}

var (
	messages = newPool(func(m *protocol.Message) { *m = protocol.Message{} })
	buffers  = newPool(func(b *bytes.Buffer) { b.Reset() })
)

// ReleaseMessage 归还 Decode 返回的消息，之后不能再引用 msg 及其 Payload
func ReleaseMessage(msg *protocol.Message) {
	messages.put(msg)
}
