package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocobolo/uitest/internal/errs"
)

func failUnlock(t *testing.T, d *Dispatcher) VaultUnlockResult {
	t.Helper()
	value := mustInvoke(t, d, "unlock_vault", map[string]any{
		"path":     DefaultVaultPath,
		"password": "wrong-password",
	})
	result := value.(VaultUnlockResult)
	require.False(t, result.Success)
	require.NotNil(t, result.ErrorMessage)
	return result
}

func TestUnlockVault_Success(t *testing.T) {
	d := New()
	value := mustInvoke(t, d, "unlock_vault", map[string]any{
		"path":     DefaultVaultPath,
		"password": DefaultUnlockPassword,
	})
	result := value.(VaultUnlockResult)

	require.True(t, result.Success)
	require.NotNil(t, result.SessionID)
	assert.Equal(t, *result.SessionID, d.ActiveSession())
	require.NotNil(t, result.VaultInfo)
	assert.Equal(t, "Personal", result.VaultInfo.Name)
	assert.True(t, result.VaultInfo.IsEncrypted)
}

func TestUnlockVault_WrongPassword(t *testing.T) {
	d := New()
	result := failUnlock(t, d)
	assert.Equal(t, "Incorrect password. Please try again.", *result.ErrorMessage)
	assert.Empty(t, d.ActiveSession())
}

func TestUnlockVault_LockoutAfterThreeFailures(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	d := New(WithClock(clock))

	failUnlock(t, d)
	failUnlock(t, d)
	third := failUnlock(t, d)
	assert.Contains(t, *third.ErrorMessage, "Too many failed attempts")

	// Correct password is still rejected while locked out.
	value := mustInvoke(t, d, "unlock_vault", map[string]any{
		"path":     DefaultVaultPath,
		"password": DefaultUnlockPassword,
	})
	locked := value.(VaultUnlockResult)
	require.False(t, locked.Success)
	assert.Contains(t, *locked.ErrorMessage, "Too many failed attempts")

	status := mustInvoke(t, d, "get_vault_rate_limit_status", map[string]any{
		"path": DefaultVaultPath,
	}).(RateLimitInfo)
	require.True(t, status.IsRateLimited)
	require.NotNil(t, status.SecondsRemaining)
	assert.LessOrEqual(t, *status.SecondsRemaining, uint64(60))
	assert.Greater(t, *status.SecondsRemaining, uint64(0))
}

func TestUnlockVault_LockoutExpiresAfterWindow(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	d := New(WithClock(clock))

	for i := 0; i < 3; i++ {
		failUnlock(t, d)
	}

	clock.Advance(61 * time.Second)

	status := mustInvoke(t, d, "get_vault_rate_limit_status", map[string]any{
		"path": DefaultVaultPath,
	}).(RateLimitInfo)
	assert.False(t, status.IsRateLimited)

	session := unlock(t, d)
	assert.NotEmpty(t, session)
}

func TestUnlockVault_FailuresOutsideWindowDoNotAccumulate(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	d := New(WithClock(clock))

	failUnlock(t, d)
	failUnlock(t, d)
	clock.Advance(61 * time.Second)

	// Window restarted, so this is failure one of a fresh window.
	result := failUnlock(t, d)
	assert.Equal(t, "Incorrect password. Please try again.", *result.ErrorMessage)

	status := mustInvoke(t, d, "get_vault_rate_limit_status", map[string]any{
		"path": DefaultVaultPath,
	}).(RateLimitInfo)
	assert.False(t, status.IsRateLimited)
}

func TestCloseVaultSession(t *testing.T) {
	d := New()
	session := unlock(t, d)

	assert.Equal(t, false, mustInvoke(t, d, "close_vault_session", map[string]any{
		"sessionId": "not-the-session",
	}))
	assert.Equal(t, true, mustInvoke(t, d, "close_vault_session", map[string]any{
		"sessionId": session,
	}))
	assert.Empty(t, d.ActiveSession())
}

func TestCheckSessionStatus(t *testing.T) {
	d := New()
	assert.Equal(t, false, mustInvoke(t, d, "check_session_status", map[string]any{
		"sessionId": "anything",
	}))

	session := unlock(t, d)
	assert.Equal(t, true, mustInvoke(t, d, "check_session_status", map[string]any{
		"sessionId": session,
	}))
}

func TestKnownVaults_Fixtures(t *testing.T) {
	d := New()
	vaults := mustInvoke(t, d, "get_known_vaults", nil).([]KnownVault)
	require.Len(t, vaults, 2)
	assert.Equal(t, "Personal", vaults[0].Name)
	assert.True(t, vaults[0].IsFavorite)

	current := mustInvoke(t, d, "get_current_vault", nil).(KnownVault)
	assert.Equal(t, "vault-personal", current.ID)

	location := mustInvoke(t, d, "get_current_vault_location", nil)
	assert.Equal(t, DefaultVaultPath, location)
}

func TestAddKnownVault(t *testing.T) {
	d := New()
	value := mustInvoke(t, d, "add_known_vault", map[string]any{
		"request": map[string]any{"name": "Archive", "path": "/home/tester/Vaults/Archive"},
	})
	result := value.(AddVaultResult)
	require.True(t, result.Success)
	require.NotNil(t, result.VaultID)

	vaults := mustInvoke(t, d, "get_known_vaults", nil).([]KnownVault)
	assert.Len(t, vaults, 3)
}

func TestAddKnownVault_DuplicatePath(t *testing.T) {
	d := New()
	value := mustInvoke(t, d, "add_known_vault", map[string]any{
		"request": map[string]any{"name": "Dup", "path": DefaultVaultPath},
	})
	result := value.(AddVaultResult)
	assert.False(t, result.Success)
	require.NotNil(t, result.ErrorMessage)
	assert.Contains(t, *result.ErrorMessage, "already registered")
}

func TestRemoveKnownVault(t *testing.T) {
	d := New()
	assert.Equal(t, true, mustInvoke(t, d, "remove_known_vault", map[string]any{
		"vaultId": "vault-work",
	}))

	err := invokeErr(t, d, "remove_known_vault", map[string]any{"vaultId": "vault-work"})
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestRemoveKnownVault_ClearsCurrent(t *testing.T) {
	d := New()
	mustInvoke(t, d, "remove_known_vault", map[string]any{"vaultId": "vault-personal"})
	assert.Nil(t, mustInvoke(t, d, "get_current_vault", nil))
}

func TestSetCurrentVault(t *testing.T) {
	d := New()
	mustInvoke(t, d, "set_current_vault", map[string]any{"vaultId": "vault-work"})
	current := mustInvoke(t, d, "get_current_vault", nil).(KnownVault)
	assert.Equal(t, "vault-work", current.ID)

	err := invokeErr(t, d, "set_current_vault", map[string]any{"vaultId": "vault-nope"})
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))

	mustInvoke(t, d, "set_current_vault", map[string]any{"vaultId": nil})
	assert.Nil(t, mustInvoke(t, d, "get_current_vault", nil))
}

func TestRecentAndFavoriteVaults(t *testing.T) {
	d := New()

	recents := mustInvoke(t, d, "get_recent_vaults", nil).([]KnownVault)
	require.Len(t, recents, 1)
	assert.Equal(t, "vault-personal", recents[0].ID)

	favorites := mustInvoke(t, d, "get_favorite_vaults", nil).([]KnownVault)
	require.Len(t, favorites, 1)
	assert.Equal(t, "vault-personal", favorites[0].ID)
}

func TestUpdateVaultMetadata(t *testing.T) {
	d := New()
	mustInvoke(t, d, "update_vault_metadata", map[string]any{
		"request": map[string]any{"vault_id": "vault-work", "name": "Work Stuff", "is_favorite": true},
	})

	favorites := mustInvoke(t, d, "get_favorite_vaults", nil).([]KnownVault)
	require.Len(t, favorites, 2)

	err := invokeErr(t, d, "update_vault_metadata", map[string]any{
		"request": map[string]any{"vault_id": "vault-nope"},
	})
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestValidateVaultLocation(t *testing.T) {
	d := New()

	existing := mustInvoke(t, d, "validate_vault_location", map[string]any{
		"path": DefaultVaultPath,
	}).(VaultLocationInfo)
	assert.True(t, existing.IsValid)
	assert.True(t, existing.HasExistingVault)
	require.NotNil(t, existing.VaultInfo)
	assert.Equal(t, "Personal", existing.VaultInfo.Name)

	fresh := mustInvoke(t, d, "validate_vault_location", map[string]any{
		"path": "/tmp/new-vault",
	}).(VaultLocationInfo)
	assert.True(t, fresh.IsValid)
	assert.False(t, fresh.HasExistingVault)

	relative := mustInvoke(t, d, "validate_vault_location", map[string]any{
		"path": "not-absolute",
	}).(VaultLocationInfo)
	assert.False(t, relative.IsValid)
}

func TestCheckVaultSetupStatus(t *testing.T) {
	d := New()

	known := mustInvoke(t, d, "check_vault_setup_status", map[string]any{
		"path": DefaultVaultPath,
	}).(VaultSetupStatus)
	assert.True(t, known.NeedsPassword)
	assert.True(t, known.IsEncrypted)
	require.NotNil(t, known.VaultInfo)

	fresh := mustInvoke(t, d, "check_vault_setup_status", map[string]any{
		"path": "/tmp/elsewhere",
	}).(VaultSetupStatus)
	assert.True(t, fresh.NeedsPassword)
	assert.False(t, fresh.IsEncrypted)
	assert.Nil(t, fresh.VaultInfo)
}

func TestCreateEncryptedVault(t *testing.T) {
	d := New()
	info := mustInvoke(t, d, "create_encrypted_vault", map[string]any{
		"path":      "/home/tester/Vaults/Fresh",
		"vaultName": "Fresh",
		"password":  "An0ther-Secret-Phrase!",
	}).(VaultInfo)
	assert.Equal(t, "Fresh", info.Name)
	assert.True(t, info.IsEncrypted)

	// The new vault becomes current and its password unlocks it.
	current := mustInvoke(t, d, "get_current_vault", nil).(KnownVault)
	assert.Equal(t, "Fresh", current.Name)
	assert.Equal(t, true, mustInvoke(t, d, "verify_vault_password", map[string]any{
		"path":     "/home/tester/Vaults/Fresh",
		"password": "An0ther-Secret-Phrase!",
	}))
}

func TestSetVaultLocation_RegistersUnknownPath(t *testing.T) {
	d := New()
	mustInvoke(t, d, "set_vault_location", map[string]any{"path": "/mnt/usb/Notes"})

	current := mustInvoke(t, d, "get_current_vault", nil).(KnownVault)
	assert.Equal(t, "Notes", current.Name)
	assert.Equal(t, "/mnt/usb/Notes", current.Path)
}

func TestCleanupInvalidVaults(t *testing.T) {
	d := New()
	d.MutateFixtures(func(fx *Fixtures) {
		fx.Vaults = append(fx.Vaults, KnownVault{ID: "vault-bad", Name: "Bad", Path: "relative/path"})
	})

	removed := mustInvoke(t, d, "cleanup_invalid_vaults", nil).([]string)
	assert.Equal(t, []string{"vault-bad"}, removed)

	vaults := mustInvoke(t, d, "get_known_vaults", nil).([]KnownVault)
	assert.Len(t, vaults, 2)
}
