package feature

import (
	"errors"
	"fmt"
	"reflect"

	featureiface "github.com/weisyn/standpoint/pkg/interfaces/feature"
)

// ErrDuplicateFeature 同一 Feature 类型重复注册
var ErrDuplicateFeature = errors.New("feature 已注册")

// Registration 一个 Feature 的注册信息
type Registration struct {
	name      string
	typ       reflect.Type
	register  func(*Services) error
	resolve   func(*Services) (featureiface.Feature, error)
	configure []func(*Services) error
	startup   func(*Services) error
}

// Name 注册名
func (r *Registration) Name() string { return r.name }

// Type Feature 的具体类型
func (r *Registration) Type() reflect.Type { return r.typ }

// ConfigureServices 追加服务配置回调，按追加顺序执行
func (r *Registration) ConfigureServices(fn func(*Services) error) *Registration {
	r.configure = append(r.configure, fn)
	return r
}

// UseStartup 设置启动钩子，在配置回调之后执行
func (r *Registration) UseStartup(fn func(*Services) error) *Registration {
	r.startup = fn
	return r
}

// Collection 有序的 Feature 注册集合
type Collection struct {
	registrations []*Registration
}

// NewCollection 创建空集合
func NewCollection() *Collection {
	return &Collection{}
}

// Register 注册 Feature 类型 T
//
// 同一类型只能注册一次；注册顺序即构造、启动与停止顺序。
func Register[T featureiface.Feature](c *Collection, name string, factory func(*Services) (T, error)) (*Registration, error) {
	t := typeOf[T]()
	for _, r := range c.registrations {
		if r.typ == t {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeature, t)
		}
	}
	if name == "" {
		name = typeName(t)
	}
	r := &Registration{
		name:     name,
		typ:      t,
		register: func(s *Services) error { return AddSingleton[T](s, factory) },
		resolve: func(s *Services) (featureiface.Feature, error) {
			f, err := Resolve[T](s)
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
	c.registrations = append(c.registrations, r)
	return r, nil
}

// Registrations 按注册顺序返回
func (c *Collection) Registrations() []*Registration {
	return append([]*Registration(nil), c.registrations...)
}

// Names 按注册顺序返回注册名
func (c *Collection) Names() []string {
	names := make([]string, len(c.registrations))
	for i, r := range c.registrations {
		names[i] = r.name
	}
	return names
}

// Len 已注册数量
func (c *Collection) Len() int { return len(c.registrations) }

// Build 构造所有 Feature
//
// 依次对每个注册：登记单例、按顺序执行配置回调、执行启动钩子；
// 全部完成后再按注册顺序解析 Feature 实例。
func (c *Collection) Build(services *Services) ([]featureiface.Feature, error) {
	for _, r := range c.registrations {
		if err := r.register(services); err != nil {
			return nil, fmt.Errorf("注册 feature %s 失败: %w", r.name, err)
		}
		for i, fn := range r.configure {
			if err := fn(services); err != nil {
				return nil, fmt.Errorf("feature %s 第 %d 个服务配置失败: %w", r.name, i+1, err)
			}
		}
		if r.startup != nil {
			if err := r.startup(services); err != nil {
				return nil, fmt.Errorf("feature %s 启动钩子失败: %w", r.name, err)
			}
		}
	}

	features := make([]featureiface.Feature, 0, len(c.registrations))
	for _, r := range c.registrations {
		f, err := r.resolve(services)
		if err != nil {
			return nil, fmt.Errorf("构造 feature %s 失败: %w", r.name, err)
		}
		features = append(features, f)
	}
	return features, nil
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// NameOf 返回 Feature 的名称：实现 Named 时取其名称，否则取类型名
func NameOf(f featureiface.Feature) string {
	if n, ok := f.(featureiface.Named); ok {
		return n.Name()
	}
	return typeName(reflect.TypeOf(f))
}
