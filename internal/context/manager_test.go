package context

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestManager_KeepsNewest(t *testing.T) {
	m := NewManager(3)
	for i := 0; i < 5; i++ {
		m.AddMessage(models.LegacyMessage{Role: models.RoleUser, Text: fmt.Sprint(i)})
	}

	msgs := m.GetMessages()
	assert.Len(t, msgs, 3)
	assert.Equal(t, "2", msgs[0].Text)
	assert.Equal(t, "4", msgs[2].Text)

	msgs[0].Text = "mutated"
	assert.Equal(t, "2", m.GetMessages()[0].Text)

	m.Clear()
	assert.Zero(t, m.Len())
}

func TestManager_DefaultLimit(t *testing.T) {
	m := NewManager(0)
	for i := 0; i < 60; i++ {
		m.AddMessage(models.LegacyMessage{Text: "x"})
	}
	assert.Equal(t, 50, m.Len())
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				m.AddMessage(models.LegacyMessage{Text: "x"})
				_ = m.GetMessages()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, m.Len())
}
