package notify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferDrain(t *testing.T) {
	var b Buffer
	b.Notify(Notice{Level: LevelError, Message: "one"})
	b.Notify(Notice{Level: LevelSuccess, Message: "two"})

	got := b.Drain()
	assert.Equal(t, []string{"one", "two"}, []string{got[0].Message, got[1].Message})
	assert.Empty(t, b.Drain())
}

func TestBufferDropsOldest(t *testing.T) {
	var b Buffer
	for i := 0; i < maxBuffered+3; i++ {
		b.Notify(Notice{Message: fmt.Sprint(i)})
	}
	got := b.Drain()
	assert.Len(t, got, maxBuffered)
	assert.Equal(t, "3", got[0].Message)
}
