//go:build e2e

package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecheck/storecheck/app/pages"
)

func TestAccount_RegisterAndLogin(t *testing.T) {
	page := newPage(t)
	catalog := pages.NewCatalog(page, storeURL)
	require.NoError(t, catalog.Open())

	// the demo store resets periodically, a timestamped address avoids
	// clashing with accounts from earlier runs
	email := fmt.Sprintf("storecheck-%d@example.com", time.Now().UnixNano())
	account := pages.NewAccount(page)

	result, err := account.Register(pages.Registration{
		FirstName: "Store",
		LastName:  "Check",
		Email:     email,
		Password:  "check-me-123",
	})
	require.NoError(t, err)
	assert.Contains(t, result, "Your registration completed")

	require.NoError(t, account.Logout())

	// fresh page so login starts from a clean session
	page2 := newPage(t)
	require.NoError(t, pages.NewCatalog(page2, storeURL).Open())
	account2 := pages.NewAccount(page2)
	require.NoError(t, account2.Login(email, "check-me-123"))
	require.NoError(t, account2.Logout())
}

func TestAccount_LoginRejectsBadPassword(t *testing.T) {
	page := newPage(t)
	require.NoError(t, pages.NewCatalog(page, storeURL).Open())

	account := pages.NewAccount(page)
	err := account.Login("nobody@example.com", "definitely-wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
}
