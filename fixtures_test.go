package awl_test

import (
	"context"
	"sync"
	"sync/atomic"
)

type Greeter interface {
	Greet() string
}

type English struct{ name string }

func (e *English) Greet() string { return "hello" }

type French struct{ name string }

func (f *French) Greet() string { return "bonjour" }

type Cache interface {
	Lookup(key string) (string, bool)
}

type Audit struct{ sink string }

type Region string

type Handler struct {
	Greeter Greeter `awl:""`
	Audit   *Audit  `awl:"audit"`
	Cache   Cache   `awl:",optional"`

	region string
}

func (h *Handler) InjectRegion(r Region) {
	h.region = string(r)
}

type Consumer struct {
	Greeter Greeter
}

func NewConsumer(g Greeter) *Consumer {
	return &Consumer{Greeter: g}
}

type Other struct {
	Greeter Greeter
}

func NewOther(g Greeter) *Other {
	return &Other{Greeter: g}
}

type Counter interface {
	Value() int
}

type Impl struct {
	x int
}

func NewImpl(x int) *Impl {
	return &Impl{x: x}
}

func (i *Impl) Value() int { return i.x }

type Holder struct {
	Counter Counter
}

func NewHolder(c Counter) *Holder {
	return &Holder{Counter: c}
}

// Shared counts how often the lifecycle touches it.
type Shared struct {
	initialized atomic.Int32
}

func (s *Shared) Initialize(context.Context) error {
	s.initialized.Add(1)
	return nil
}

type Left struct{ Shared *Shared }

func NewLeft(s *Shared) *Left { return &Left{Shared: s} }

type Right struct{ Shared *Shared }

func NewRight(s *Shared) *Right { return &Right{Shared: s} }

type Top struct {
	Left  *Left
	Right *Right
}

func NewTop(l *Left, r *Right) *Top { return &Top{Left: l, Right: r} }

type CycA struct{ B *CycB }

func NewCycA(b *CycB) *CycA { return &CycA{B: b} }

type CycB struct{ A *CycA }

func NewCycB(a *CycA) *CycB { return &CycB{A: a} }

// teardownLog records deactivation and disposal calls in order.
type teardownLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *teardownLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *teardownLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type Base struct {
	log *teardownLog
	err error
}

func NewBase(log *teardownLog) *Base { return &Base{log: log} }

func (b *Base) Deactivate(context.Context) error {
	b.log.add("deactivate A")
	return nil
}

func (b *Base) Close() error {
	b.log.add("close A")
	return b.err
}

type Dependent struct {
	log  *teardownLog
	base *Base
	err  error
}

func NewDependent(log *teardownLog, base *Base) *Dependent {
	return &Dependent{log: log, base: base}
}

func (d *Dependent) Deactivate(context.Context) error {
	d.log.add("deactivate B")
	return nil
}

func (d *Dependent) Close() error {
	d.log.add("close B")
	return d.err
}
