package feature

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface{ Greet() string }

type english struct{ n int }

func (e *english) Greet() string { return "hello" }

type counter struct{ built int }

func TestServices_Lifetimes(t *testing.T) {
	s := NewServices()
	c := &counter{}

	require.NoError(t, AddSingleton[greeter](s, func(*Services) (greeter, error) {
		c.built++
		return &english{n: c.built}, nil
	}))
	require.NoError(t, AddTransient[*english](s, func(*Services) (*english, error) {
		return &english{}, nil
	}))
	require.NoError(t, AddInstance[*counter](s, c))

	g1 := MustResolve[greeter](s)
	g2 := MustResolve[greeter](s)
	assert.Same(t, g1, g2)
	assert.Equal(t, 1, c.built)

	e1 := MustResolve[*english](s)
	e2 := MustResolve[*english](s)
	assert.NotSame(t, e1, e2)

	assert.Same(t, c, MustResolve[*counter](s))
	assert.True(t, Has[greeter](s))
	assert.False(t, Has[string](s))

	lt, ok := LifetimeOf[*english](s)
	require.True(t, ok)
	assert.Equal(t, Transient, lt)
	assert.Len(t, s.Types(), 3)
}

func TestServices_Errors(t *testing.T) {
	s := NewServices()
	require.NoError(t, AddInstance[int](s, 1))
	assert.ErrorIs(t, AddInstance[int](s, 2), ErrDuplicateService)

	_, err := Resolve[string](s)
	assert.ErrorIs(t, err, ErrServiceNotFound)
	assert.Panics(t, func() { MustResolve[string](s) })

	boom := errors.New("boom")
	require.NoError(t, AddSingleton[float64](s, func(*Services) (float64, error) { return 0, boom }))
	_, err = Resolve[float64](s)
	assert.ErrorIs(t, err, boom)
}

func TestServices_CircularDependency(t *testing.T) {
	s := NewServices()
	require.NoError(t, AddSingleton[*english](s, func(s *Services) (*english, error) {
		_, err := Resolve[*english](s)
		return nil, err
	}))

	_, err := Resolve[*english](s)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestServices_SingletonDependsOnOther(t *testing.T) {
	s := NewServices()
	require.NoError(t, AddInstance[string](s, "cfg"))
	require.NoError(t, AddSingleton[greeter](s, func(s *Services) (greeter, error) {
		cfg, err := Resolve[string](s)
		if err != nil {
			return nil, err
		}
		return &english{n: len(cfg)}, nil
	}))

	g := MustResolve[greeter](s)
	assert.Equal(t, 3, g.(*english).n)

	var seen int
	s.Each(func(_ reflect.Type, _ interface{}) { seen++ })
	assert.Equal(t, 2, seen)
}
