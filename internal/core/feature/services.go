package feature

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrDuplicateService 同一类型重复注册
	ErrDuplicateService = errors.New("服务已注册")

	// ErrServiceNotFound 服务未注册
	ErrServiceNotFound = errors.New("服务未注册")

	// ErrCircularDependency 单例构造过程中再次解析自身
	ErrCircularDependency = errors.New("服务存在循环依赖")
)

// Lifetime 服务生命周期
type Lifetime int

const (
	// Singleton 首次解析时构造，之后复用
	Singleton Lifetime = iota
	// Transient 每次解析都构造新实例
	Transient
	// Instance 注册时即提供的实例
	Instance
)

// String 实现 fmt.Stringer
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "instance"
	}
}

type descriptor struct {
	typ      reflect.Type
	lifetime Lifetime
	factory  func(*Services) (interface{}, error)

	mu       sync.Mutex
	building bool
	built    bool
	value    interface{}
}

// Services 显式服务注册表，以类型为键
//
// 注册与解析都是并发安全的；单例构造期间对自身的再次解析返回 ErrCircularDependency。
type Services struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*descriptor
	order   []reflect.Type
}

// NewServices 创建空注册表
func NewServices() *Services {
	return &Services{entries: make(map[reflect.Type]*descriptor)}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (s *Services) add(d *descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[d.typ]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateService, d.typ)
	}
	s.entries[d.typ] = d
	s.order = append(s.order, d.typ)
	return nil
}

// AddSingleton 注册单例服务
func AddSingleton[T any](s *Services, factory func(*Services) (T, error)) error {
	return s.add(&descriptor{
		typ:      typeOf[T](),
		lifetime: Singleton,
		factory:  func(s *Services) (interface{}, error) { return factory(s) },
	})
}

// AddTransient 注册瞬时服务
func AddTransient[T any](s *Services, factory func(*Services) (T, error)) error {
	return s.add(&descriptor{
		typ:      typeOf[T](),
		lifetime: Transient,
		factory:  func(s *Services) (interface{}, error) { return factory(s) },
	})
}

// AddInstance 注册现成实例
func AddInstance[T any](s *Services, v T) error {
	return s.add(&descriptor{
		typ:      typeOf[T](),
		lifetime: Instance,
		built:    true,
		value:    v,
	})
}

// Resolve 解析服务
func Resolve[T any](s *Services) (T, error) {
	var zero T
	v, err := s.resolve(typeOf[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// MustResolve 解析服务，失败时 panic
func MustResolve[T any](s *Services) T {
	v, err := Resolve[T](s)
	if err != nil {
		panic(err)
	}
	return v
}

// Has 服务是否已注册
func Has[T any](s *Services) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[typeOf[T]()]
	return ok
}

// LifetimeOf 返回已注册服务的生命周期
func LifetimeOf[T any](s *Services) (Lifetime, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.entries[typeOf[T]()]
	if !ok {
		return 0, false
	}
	return d.lifetime, true
}

// Types 按注册顺序返回所有服务类型
func (s *Services) Types() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]reflect.Type(nil), s.order...)
}

// Each 按注册顺序遍历已构造的单例与实例（不触发构造）
func (s *Services) Each(fn func(reflect.Type, interface{})) {
	s.mu.RLock()
	ds := make([]*descriptor, 0, len(s.order))
	for _, t := range s.order {
		ds = append(ds, s.entries[t])
	}
	s.mu.RUnlock()

	for _, d := range ds {
		d.mu.Lock()
		built, v := d.built, d.value
		d.mu.Unlock()
		if built {
			fn(d.typ, v)
		}
	}
}

func (s *Services) resolve(t reflect.Type) (interface{}, error) {
	s.mu.RLock()
	d, ok := s.entries[t]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, t)
	}

	if d.lifetime == Transient {
		return d.build(s)
	}

	d.mu.Lock()
	if d.built {
		v := d.value
		d.mu.Unlock()
		return v, nil
	}
	if d.building {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, t)
	}
	d.building = true
	d.mu.Unlock()

	v, err := d.build(s)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.building = false
	if err != nil {
		return nil, err
	}
	d.built, d.value = true, v
	return v, nil
}

func (d *descriptor) build(s *Services) (interface{}, error) {
	v, err := d.factory(s)
	if err != nil {
		return nil, fmt.Errorf("构造服务 %s 失败: %w", d.typ, err)
	}
	return v, nil
}
