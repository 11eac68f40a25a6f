package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))
	assert.Nil(t, Wrapf(nil, "ctx %d", 1))

	err := Wrap(ErrTimeout, "run dnsx")
	require.Error(t, err)
	assert.Equal(t, "run dnsx: operation timed out", err.Error())
	assert.True(t, IsTimeout(err))

	err = Wrapf(ErrNotFound, "scan %s", "abc")
	assert.Equal(t, "scan abc: resource not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTimeout(err))
}

func TestWrapKeepsChainForAs(t *testing.T) {
	type custom struct{ error }
	base := custom{fmt.Errorf("inner")}

	var target custom
	assert.True(t, As(Wrap(base, "outer"), &target))
}

func TestCollector(t *testing.T) {
	var c Collector
	assert.NoError(t, c.Err())
	assert.Equal(t, "", c.Summary())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.Add(fmt.Errorf("tool %d failed", i))
			} else {
				c.Add(nil)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
	assert.Len(t, c.Errors(), 10)
	assert.Error(t, c.Err())
	assert.Contains(t, c.Summary(), "failed")
}
