package bridge

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cocobolo/uitest/internal/errs"
)

// Unlock lockout: 3 failed attempts within the window lock the vault for the
// remainder of the window.
const (
	unlockMaxFailures  = 3
	unlockWindow       = 60 * time.Second
	vaultFormatVersion = "1.0.0"
)

func (d *Dispatcher) registerDefaults() {
	d.defaults = map[string]Handler{
		"get_app_info":               d.getAppInfo,
		"greet":                      d.greet,
		"get_app_config":             d.getAppConfig,
		"validate_password_strength": d.validatePasswordStrength,

		"validate_vault_location":    d.validateVaultLocation,
		"set_vault_location":         d.setVaultLocation,
		"get_current_vault_location": d.getCurrentVaultLocation,
		"add_known_vault":            d.addKnownVault,
		"remove_known_vault":         d.removeKnownVault,
		"get_known_vaults":           d.getKnownVaults,
		"get_current_vault":          d.getCurrentVault,
		"set_current_vault":          d.setCurrentVault,
		"get_recent_vaults":          d.getRecentVaults,
		"get_favorite_vaults":        d.getFavoriteVaults,
		"update_vault_metadata":      d.updateVaultMetadata,
		"cleanup_invalid_vaults":     d.cleanupInvalidVaults,
		"check_vault_setup_status":   d.checkVaultSetupStatus,
		"create_encrypted_vault":     d.createEncryptedVault,
		"verify_vault_password":      d.verifyVaultPassword,

		"get_vault_rate_limit_status": d.getVaultRateLimitStatus,
		"unlock_vault":                d.unlockVault,
		"close_vault_session":         d.closeVaultSession,
		"check_session_status":        d.checkSessionStatus,

		"create_note":    d.createNote,
		"get_notes_list": d.getNotesList,
		"load_note":      d.loadNote,
		"save_note":      d.saveNote,
		"delete_note":    d.deleteNote,
		"move_note":      d.moveNote,

		"get_folders_list": d.getFoldersList,
		"create_folder":    d.createFolder,
		"delete_folder":    d.deleteFolder,
		"move_folder":      d.moveFolder,
		"rename_folder":    d.renameFolder,
	}
}

func (d *Dispatcher) vaultByPath(p string) *KnownVault {
	for i := range d.fx.Vaults {
		if d.fx.Vaults[i].Path == p {
			return &d.fx.Vaults[i]
		}
	}
	return nil
}

func (d *Dispatcher) vaultByID(id string) *KnownVault {
	for i := range d.fx.Vaults {
		if d.fx.Vaults[i].ID == id {
			return &d.fx.Vaults[i]
		}
	}
	return nil
}

func vaultInfoFor(v *KnownVault) *VaultInfo {
	return &VaultInfo{
		Name:        v.Name,
		CreatedAt:   v.CreatedAt,
		Version:     vaultFormatVersion,
		IsEncrypted: true,
	}
}

func (d *Dispatcher) validateVaultLocation(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[pathArgs](call.Args)
	if err != nil {
		return nil, err
	}

	// The mock treats any absolute path as an existing writable directory.
	if !strings.HasPrefix(args.Path, "/") {
		return VaultLocationInfo{Path: args.Path}, nil
	}

	info := VaultLocationInfo{
		Path:       args.Path,
		IsValid:    true,
		IsWritable: true,
	}
	if v := d.vaultByPath(args.Path); v != nil {
		info.HasExistingVault = true
		info.VaultInfo = vaultInfoFor(v)
	}
	return info, nil
}

func (d *Dispatcher) setVaultLocation(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[pathArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if v := d.vaultByPath(args.Path); v != nil {
		d.fx.CurrentVaultID = v.ID
		return nil, nil
	}

	name := path.Base(args.Path)
	if name == "." || name == "/" || name == "" {
		name = "Vault"
	}
	v := KnownVault{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      args.Path,
		CreatedAt: d.clock.Now().UTC(),
	}
	d.fx.Vaults = append(d.fx.Vaults, v)
	d.fx.CurrentVaultID = v.ID
	return nil, nil
}

func (d *Dispatcher) getCurrentVaultLocation(_ context.Context, _ Call) (any, error) {
	v := d.fx.CurrentVault()
	if v == nil {
		return nil, nil
	}
	return v.Path, nil
}

func (d *Dispatcher) addKnownVault(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[addVaultArgs](call.Args)
	if err != nil {
		return nil, err
	}

	fail := func(msg string) AddVaultResult {
		return AddVaultResult{ErrorMessage: &msg}
	}
	if strings.TrimSpace(args.Request.Name) == "" {
		return fail("Vault name cannot be empty"), nil
	}
	if strings.TrimSpace(args.Request.Path) == "" {
		return fail("Vault path cannot be empty"), nil
	}
	if d.vaultByPath(args.Request.Path) != nil {
		return fail("A vault at this location is already registered"), nil
	}

	v := KnownVault{
		ID:        uuid.NewString(),
		Name:      args.Request.Name,
		Path:      args.Request.Path,
		CreatedAt: d.clock.Now().UTC(),
	}
	d.fx.Vaults = append(d.fx.Vaults, v)
	return AddVaultResult{Success: true, VaultID: &v.ID}, nil
}

func (d *Dispatcher) removeKnownVault(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[vaultIDArgs](call.Args)
	if err != nil {
		return nil, err
	}
	for i := range d.fx.Vaults {
		if d.fx.Vaults[i].ID == args.VaultID {
			d.fx.Vaults = append(d.fx.Vaults[:i], d.fx.Vaults[i+1:]...)
			if d.fx.CurrentVaultID == args.VaultID {
				d.fx.CurrentVaultID = ""
			}
			return true, nil
		}
	}
	return nil, errs.New(errs.NotFound, fmt.Sprintf("vault %q is not registered", args.VaultID))
}

func (d *Dispatcher) getKnownVaults(_ context.Context, _ Call) (any, error) {
	vaults := make([]KnownVault, len(d.fx.Vaults))
	copy(vaults, d.fx.Vaults)
	return vaults, nil
}

func (d *Dispatcher) getCurrentVault(_ context.Context, _ Call) (any, error) {
	v := d.fx.CurrentVault()
	if v == nil {
		return nil, nil
	}
	return *v, nil
}

func (d *Dispatcher) setCurrentVault(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[setCurrentVaultArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if args.VaultID == nil {
		d.fx.CurrentVaultID = ""
		return nil, nil
	}
	if d.vaultByID(*args.VaultID) == nil {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("vault %q is not registered", *args.VaultID))
	}
	d.fx.CurrentVaultID = *args.VaultID
	return nil, nil
}

func (d *Dispatcher) getRecentVaults(_ context.Context, _ Call) (any, error) {
	recents := make([]KnownVault, 0, len(d.fx.Vaults))
	for _, v := range d.fx.Vaults {
		if v.LastAccessed != nil {
			recents = append(recents, v)
		}
	}
	sort.Slice(recents, func(i, j int) bool {
		return recents[i].LastAccessed.After(*recents[j].LastAccessed)
	})
	return recents, nil
}

func (d *Dispatcher) getFavoriteVaults(_ context.Context, _ Call) (any, error) {
	favorites := make([]KnownVault, 0, len(d.fx.Vaults))
	for _, v := range d.fx.Vaults {
		if v.IsFavorite {
			favorites = append(favorites, v)
		}
	}
	return favorites, nil
}

func (d *Dispatcher) updateVaultMetadata(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[updateVaultMetadataArgs](call.Args)
	if err != nil {
		return nil, err
	}
	v := d.vaultByID(args.Request.VaultID)
	if v == nil {
		return nil, errs.New(errs.NotFound, fmt.Sprintf("vault %q is not registered", args.Request.VaultID))
	}
	if args.Request.Name != nil && strings.TrimSpace(*args.Request.Name) != "" {
		v.Name = *args.Request.Name
	}
	if args.Request.IsFavorite != nil {
		v.IsFavorite = *args.Request.IsFavorite
	}
	return nil, nil
}

func (d *Dispatcher) cleanupInvalidVaults(_ context.Context, _ Call) (any, error) {
	// Fixture vaults always resolve; relative paths are the only invalid ones.
	removed := []string{}
	kept := d.fx.Vaults[:0]
	for _, v := range d.fx.Vaults {
		if strings.HasPrefix(v.Path, "/") {
			kept = append(kept, v)
			continue
		}
		removed = append(removed, v.ID)
		if d.fx.CurrentVaultID == v.ID {
			d.fx.CurrentVaultID = ""
		}
	}
	d.fx.Vaults = kept
	return removed, nil
}

func (d *Dispatcher) checkVaultSetupStatus(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[pathArgs](call.Args)
	if err != nil {
		return nil, err
	}
	v := d.vaultByPath(args.Path)
	if v == nil {
		return VaultSetupStatus{NeedsPassword: true}, nil
	}
	return VaultSetupStatus{
		NeedsPassword: true,
		IsEncrypted:   true,
		VaultInfo:     vaultInfoFor(v),
	}, nil
}

func (d *Dispatcher) createEncryptedVault(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[createVaultArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.VaultName) == "" {
		return nil, errs.New(errs.InvalidArgument, "Vault name cannot be empty")
	}
	if d.vaultByPath(args.Path) != nil {
		return nil, errs.New(errs.InvalidArgument, "A vault already exists at this location")
	}
	now := d.clock.Now().UTC()
	v := KnownVault{
		ID:        uuid.NewString(),
		Name:      args.VaultName,
		Path:      args.Path,
		CreatedAt: now,
	}
	d.fx.Vaults = append(d.fx.Vaults, v)
	d.fx.CurrentVaultID = v.ID
	d.fx.UnlockPassword = args.Password
	return *vaultInfoFor(&v), nil
}

func (d *Dispatcher) verifyVaultPassword(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[vaultPasswordArgs](call.Args)
	if err != nil {
		return nil, err
	}
	return args.Password == d.fx.UnlockPassword, nil
}

// rateLimitStatusLocked reports whether unlocks are locked out and, if so, how
// many whole seconds remain in the window.
func (d *Dispatcher) rateLimitStatusLocked() (bool, uint64) {
	fx := d.fx
	if fx.unlockFailures < unlockMaxFailures {
		return false, 0
	}
	elapsed := d.clock.Now().Sub(fx.lastFailure)
	if elapsed >= unlockWindow {
		return false, 0
	}
	remaining := unlockWindow - elapsed
	secs := uint64((remaining + time.Second - 1) / time.Second)
	return true, secs
}

func (d *Dispatcher) recordUnlockFailureLocked() {
	now := d.clock.Now()
	if now.Sub(d.fx.lastFailure) >= unlockWindow {
		d.fx.unlockFailures = 0
	}
	d.fx.unlockFailures++
	d.fx.lastFailure = now
}

func (d *Dispatcher) getVaultRateLimitStatus(_ context.Context, call Call) (any, error) {
	if _, err := decodeArgs[pathArgs](call.Args); err != nil {
		return nil, err
	}
	limited, secs := d.rateLimitStatusLocked()
	info := RateLimitInfo{IsRateLimited: limited}
	if limited {
		info.SecondsRemaining = &secs
	}
	return info, nil
}

func (d *Dispatcher) unlockVault(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[vaultPasswordArgs](call.Args)
	if err != nil {
		return nil, err
	}

	if limited, secs := d.rateLimitStatusLocked(); limited {
		msg := fmt.Sprintf("Too many failed attempts. Please wait %d seconds before trying again.", secs)
		return VaultUnlockResult{ErrorMessage: &msg}, nil
	}

	if args.Password != d.fx.UnlockPassword {
		d.recordUnlockFailureLocked()
		msg := "Incorrect password. Please try again."
		if limited, secs := d.rateLimitStatusLocked(); limited {
			msg = fmt.Sprintf("Too many failed attempts. Please wait %d seconds before trying again.", secs)
		}
		return VaultUnlockResult{ErrorMessage: &msg}, nil
	}

	d.fx.unlockFailures = 0
	session := uuid.NewString()
	d.fx.Session = session

	var info *VaultInfo
	if v := d.vaultByPath(args.Path); v != nil {
		now := d.clock.Now().UTC()
		v.LastAccessed = &now
		info = vaultInfoFor(v)
	} else {
		info = d.fx.VaultInfo()
	}

	return VaultUnlockResult{
		Success:   true,
		SessionID: &session,
		VaultInfo: info,
	}, nil
}

func (d *Dispatcher) closeVaultSession(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[sessionArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if args.SessionID == "" || args.SessionID != d.fx.Session {
		return false, nil
	}
	d.fx.Session = ""
	return true, nil
}

func (d *Dispatcher) checkSessionStatus(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[sessionArgs](call.Args)
	if err != nil {
		return nil, err
	}
	return args.SessionID != "" && args.SessionID == d.fx.Session, nil
}
