package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/internal/core/network/connection"
)

func TestController_EchoesWithNullMarker(t *testing.T) {
	c, err := Factory(nil)()
	require.NoError(t, err)

	reg := c.Registration()
	require.NotNil(t, reg.Handle)
	assert.Nil(t, reg.HandleAsync)
	assert.Equal(t, EndMarker, reg.Markers.End)

	conn := connection.NewBuffer(context.Background(), nil, nil, "peer", *reg.Markers)
	defer conn.Close()
	resp, err := reg.Handle(context.Background(), conn, []byte("PING"))
	require.NoError(t, err)
	assert.Equal(t, "PING", string(resp))
}
