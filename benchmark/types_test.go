package benchmark

import "fmt"

type Settings struct {
	DSN     string
	Workers int
}

type Clock struct {
	Zone string
}

type Store struct {
	Settings *Settings
	Clock    *Clock
}

type Index struct {
	Clock *Clock
}

type Catalog struct {
	Store *Store
	Index *Index
}

type Checkout struct {
	Catalog *Catalog
	Clock   *Clock
}

func newSettings() *Settings { return &Settings{DSN: "postgres://localhost/shop", Workers: 8} }

func newClock() *Clock { return &Clock{Zone: "UTC"} }

func newStore(s *Settings, c *Clock) *Store { return &Store{Settings: s, Clock: c} }

func newIndex(c *Clock) *Index { return &Index{Clock: c} }

func newCatalog(s *Store, i *Index) *Catalog { return &Catalog{Store: s, Index: i} }

func newCheckout(cat *Catalog, c *Clock) *Checkout { return &Checkout{Catalog: cat, Clock: c} }

// Plugin is bound many times to measure collection resolution.
type Plugin interface {
	Name() string
}

type plugin struct {
	name string
}

func (p *plugin) Name() string { return p.name }

func pluginName(i int) string { return fmt.Sprintf("plugin_%d", i) }

// Session is created once per request.
type Session struct {
	Settings *Settings
	Clock    *Clock
}

func newSession(s *Settings, c *Clock) *Session { return &Session{Settings: s, Clock: c} }

type Table[T any] struct {
	Rows []T
}

type Repo[T any] struct {
	Table *Table[T]
}
