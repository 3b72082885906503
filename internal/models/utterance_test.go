package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendExchange(t *testing.T) {
	var h History
	h = h.AppendExchange("hi", "hello")
	h = h.AppendExchange("who are you?", "a bot")

	assert.Len(t, h, 4)
	assert.Equal(t, []string{"hi", "hello", "who are you?", "a bot"}, h.Texts())
	assert.Equal(t, Human, h[0].Speaker)
	assert.Equal(t, Assistant, h[1].Speaker)
	assert.Equal(t, Human, h[2].Speaker)
	assert.Equal(t, Assistant, h[3].Speaker)
}

func TestHistory_CloneDoesNotAlias(t *testing.T) {
	h := History{}.AppendExchange("q", "a")
	c := h.Clone()
	c[0].Text = "changed"

	assert.Equal(t, "q", h[0].Text)
	assert.Nil(t, History(nil).Clone())
}

func TestSpeaker_String(t *testing.T) {
	assert.Equal(t, "human", Human.String())
	assert.Equal(t, "assistant", Assistant.String())
	assert.Equal(t, "unknown", Speaker(7).String())
}
