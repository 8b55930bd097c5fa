package container

import (
	"errors"

	"github.com/specialistvlad/objgraph/internal/registry"
)

type Engine struct {
	Power int
}

func NewEngine(power int) *Engine { return &Engine{Power: power} }

type Fuel interface {
	Kind() string
}

type Petrol struct{}

func (*Petrol) Kind() string { return "petrol" }

type Diesel struct{}

func (*Diesel) Kind() string { return "diesel" }

type Car struct {
	Engine *Engine
	Fuel   Fuel
	Name   string
	Tuned  bool
}

func NewCar(e *Engine, f Fuel, name string) *Car {
	return &Car{Engine: e, Fuel: f, Name: name}
}

func (c *Car) Rename(name string) { c.Name = name }

func (c *Car) Tune() (*Car, error) {
	out := *c
	out.Tuned = true
	return &out, nil
}

func (c *Car) Fail() error { return errBroken }

// Parent and Child depend on each other.
type Parent struct {
	Child *Child
}

func NewParent(c *Child) *Parent { return &Parent{Child: c} }

type Child struct {
	Parent *Parent
}

func InitChild(ch *Child, p *Parent) { ch.Parent = p }

type Pool struct {
	ID int
}

type Repo struct {
	Pool *Pool
}

func NewRepo(p *Pool) *Repo { return &Repo{Pool: p} }

type Cache struct {
	Pool *Pool
}

func NewCache(p *Pool) *Cache { return &Cache{Pool: p} }

type Service struct {
	Repo  *Repo
	Cache *Cache
}

func NewService(r *Repo, c *Cache) *Service { return &Service{Repo: r, Cache: c} }

// Sink receives its Repo through a post call.
type Sink struct {
	Cache *Cache
	Repo  *Repo
}

func NewSink(c *Cache) *Sink { return &Sink{Cache: c} }

func (s *Sink) Use(r *Repo) { s.Repo = r }

type Greeter interface {
	Greet() string
}

type English struct {
	Word string
}

func NewEnglish(word string) *English { return &English{Word: word} }

func (e *English) Greet() string { return e.Word }

// Shape is embedded by Square.
type Shape struct {
	Color string
}

type Square struct {
	Shape
}

func InitShape(s *Shape, color string) { s.Color = color }

func InitSquare(s *Square, color string) { s.Color = color }

var errBroken = errors.New("broken on purpose")

type Broken struct {
	OK bool
}

func NewBroken(fail bool) (*Broken, error) {
	if fail {
		return nil, errBroken
	}
	return &Broken{OK: true}, nil
}

type Bag struct {
	Label string
	Items []string
}

func NewBag(label string, items ...string) *Bag { return &Bag{Label: label, Items: items} }

type Unregistered struct{}

type Holder struct {
	U     *Unregistered
	Limit int8
	Ports []int
}

func NewHolder(u *Unregistered, limit int8, ports []int) *Holder {
	return &Holder{U: u, Limit: limit, Ports: ports}
}

// newFixtureRegistry registers every fixture type. poolIDs counts Pool
// allocations.
func newFixtureRegistry() (*registry.Registry, *int) {
	reg := registry.New()
	poolIDs := new(int)

	reg.Register(NewEngine,
		registry.WithDefault(0, 100),
		registry.WithFactory("Turbo", func(power int) *Engine { return &Engine{Power: power * 10} }),
	)
	registry.Interface[Fuel](reg)
	registry.Provide[Petrol](reg)
	registry.Provide[Diesel](reg)
	reg.Register(NewCar)
	reg.Register(NewParent)
	reg.Register(InitChild)
	reg.Register(func() *Pool {
		*poolIDs++
		return &Pool{ID: *poolIDs}
	})
	reg.Register(NewRepo)
	reg.Register(NewCache)
	reg.Register(NewService)
	reg.Register(NewSink)
	registry.Interface[Greeter](reg)
	reg.Register(NewEnglish)
	reg.Register(InitShape)
	reg.Register(InitSquare)
	reg.Register(NewBroken)
	reg.Register(NewBag)
	reg.Register(NewHolder)
	return reg, poolIDs
}
