package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dbFeature struct{ dsn string }

func (*dbFeature) Start(context.Context) error { return nil }
func (*dbFeature) Stop(context.Context) error  { return nil }

type cacheFeature struct{ db *dbFeature }

func (*cacheFeature) Start(context.Context) error { return nil }
func (*cacheFeature) Stop(context.Context) error  { return nil }

type dsn string

func TestCollection_DuplicateFeature(t *testing.T) {
	c := NewCollection()
	_, err := Register(c, "db", func(*Services) (*dbFeature, error) { return &dbFeature{}, nil })
	require.NoError(t, err)

	_, err = Register(c, "db2", func(*Services) (*dbFeature, error) { return &dbFeature{}, nil })
	assert.ErrorIs(t, err, ErrDuplicateFeature)
	assert.Equal(t, 1, c.Len())
}

func TestCollection_BuildOrder(t *testing.T) {
	var steps []string
	c := NewCollection()

	reg, err := Register(c, "", func(s *Services) (*dbFeature, error) {
		steps = append(steps, "db.resolve")
		return &dbFeature{dsn: string(MustResolve[dsn](s))}, nil
	})
	require.NoError(t, err)
	reg.ConfigureServices(func(s *Services) error {
		steps = append(steps, "db.configure1")
		return AddInstance[dsn](s, "mem://")
	}).ConfigureServices(func(*Services) error {
		steps = append(steps, "db.configure2")
		return nil
	}).UseStartup(func(*Services) error {
		steps = append(steps, "db.startup")
		return nil
	})

	_, err = Register(c, "cache", func(s *Services) (*cacheFeature, error) {
		steps = append(steps, "cache.resolve")
		return &cacheFeature{db: MustResolve[*dbFeature](s)}, nil
	})
	require.NoError(t, err)

	services := NewServices()
	built, err := c.Build(services)
	require.NoError(t, err)

	assert.Equal(t, []string{"db.configure1", "db.configure2", "db.startup", "db.resolve", "cache.resolve"}, steps)
	require.Len(t, built, 2)
	db := built[0].(*dbFeature)
	assert.Equal(t, "mem://", db.dsn)
	assert.Same(t, db, built[1].(*cacheFeature).db)
	assert.Equal(t, []string{"dbFeature", "cache"}, c.Names())
	assert.Equal(t, "cacheFeature", NameOf(built[1]))
}

func TestCollection_BuildStopsOnConfigureError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollection()
	reg, err := Register(c, "db", func(*Services) (*dbFeature, error) { return &dbFeature{}, nil })
	require.NoError(t, err)
	reg.ConfigureServices(func(*Services) error { return boom })

	_, err = c.Build(NewServices())
	assert.ErrorIs(t, err, boom)
}
