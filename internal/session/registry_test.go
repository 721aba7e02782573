package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/session"
)

func TestRegistry_SessionsAreIsolatedPerUser(t *testing.T) {
	registry := session.NewRegistry()

	alice := registry.For("alice")
	bob := registry.For("bob")

	alice.SetTableCode("B2")

	assert.Equal(t, "B2", alice.TableCode())
	assert.Empty(t, bob.TableCode())

	// The same user gets the same session back.
	assert.Same(t, alice, registry.For("alice"))
}
