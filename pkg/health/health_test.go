package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerOverallStatus(t *testing.T) {
	ctx := context.Background()
	c := NewChecker()
	assert.Equal(t, StatusHealthy, c.GetOverallStatus())

	c.Register("database", func(context.Context) error { return nil })
	c.Register("lock", func(context.Context) error { return errors.New("redis unreachable") })
	c.RunAll(ctx)

	assert.Equal(t, StatusDegraded, c.GetOverallStatus())

	checks := c.GetAllChecks()
	require.Len(t, checks, 2)
	assert.Equal(t, "database", checks[0].Name)
	assert.Equal(t, StatusHealthy, checks[0].Status)
	assert.Equal(t, "lock", checks[1].Name)
	assert.Equal(t, "redis unreachable", checks[1].Message)

	c.RunCheck(ctx, "database", func(context.Context) error { return errors.New("down") })
	assert.Equal(t, StatusUnhealthy, c.GetOverallStatus())
}
