// Package bridge implements a mock of the Cocobolo command-invocation bridge.
// It answers the same named commands the desktop frontend invokes, returning
// canned or configurable responses so UI tests run without a real backend.
//
// Argument keys use camelCase (what the frontend sends); response fields use
// snake_case (what the backend serializes). Both conventions are load-bearing:
// the UI under test parses these shapes verbatim.
package bridge

import "time"

// AppInfo describes the application for about dialogs.
type AppInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// AppConfig carries user preferences persisted by the real application.
type AppConfig struct {
	Theme               string `json:"theme"`
	AutoSaveInterval    int    `json:"auto_save_interval"`
	ShowMarkdownPreview bool   `json:"show_markdown_preview"`
	WindowMaximized     bool   `json:"window_maximized"`
	WindowWidth         *int   `json:"window_width"`
	WindowHeight        *int   `json:"window_height"`
}

// VaultInfo describes a vault's on-disk metadata.
type VaultInfo struct {
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	Version     string    `json:"version"`
	IsEncrypted bool      `json:"is_encrypted"`
}

// KnownVault is a vault the application remembers across sessions.
type KnownVault struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessed *time.Time `json:"last_accessed"`
	IsFavorite   bool       `json:"is_favorite"`
}

// VaultLocationInfo reports validation of a candidate vault directory.
type VaultLocationInfo struct {
	Path             string     `json:"path"`
	IsValid          bool       `json:"is_valid"`
	IsWritable       bool       `json:"is_writable"`
	HasExistingVault bool       `json:"has_existing_vault"`
	VaultInfo        *VaultInfo `json:"vault_info"`
}

// VaultSetupStatus reports whether a vault still needs password setup.
type VaultSetupStatus struct {
	NeedsPassword bool       `json:"needs_password"`
	IsEncrypted   bool       `json:"is_encrypted"`
	VaultInfo     *VaultInfo `json:"vault_info"`
}

// VaultUnlockResult is the structured result of an unlock attempt.
type VaultUnlockResult struct {
	Success      bool       `json:"success"`
	SessionID    *string    `json:"session_id"`
	VaultInfo    *VaultInfo `json:"vault_info"`
	ErrorMessage *string    `json:"error_message"`
}

// RateLimitInfo reports unlock rate-limiting status for a vault.
type RateLimitInfo struct {
	IsRateLimited    bool    `json:"is_rate_limited"`
	SecondsRemaining *uint64 `json:"seconds_remaining"`
}

// AddVaultResult is the structured result of registering a known vault.
type AddVaultResult struct {
	Success      bool    `json:"success"`
	VaultID      *string `json:"vault_id"`
	ErrorMessage *string `json:"error_message"`
}

// PasswordStrength is the scored result of password validation.
type PasswordStrength struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Note is a full note record including content.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	NoteType   string    `json:"note_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Tags       []string  `json:"tags"`
	FolderPath *string   `json:"folder_path"`
}

// NoteMetadata is the listing projection of a note, without full content.
type NoteMetadata struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Tags           []string  `json:"tags"`
	FolderPath     *string   `json:"folder_path"`
	NoteType       string    `json:"note_type"`
	ContentPreview string    `json:"content_preview"`
}

// CreateNoteResult is the structured result of note creation.
type CreateNoteResult struct {
	Success      bool    `json:"success"`
	Note         *Note   `json:"note"`
	ErrorMessage *string `json:"error_message"`
}

// SaveNoteResult is the structured result of saving a note.
type SaveNoteResult struct {
	Success      bool    `json:"success"`
	Note         *Note   `json:"note"`
	ErrorMessage *string `json:"error_message"`
}

// Argument shapes, decoded from the frontend's camelCase invoke payloads.

type greetArgs struct {
	Name string `json:"name"`
}

type pathArgs struct {
	Path string `json:"path"`
}

type vaultIDArgs struct {
	VaultID string `json:"vaultId"`
}

type setCurrentVaultArgs struct {
	VaultID *string `json:"vaultId"`
}

type addVaultArgs struct {
	Request struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"request"`
}

type updateVaultMetadataArgs struct {
	Request struct {
		VaultID    string  `json:"vault_id"`
		Name       *string `json:"name"`
		IsFavorite *bool   `json:"is_favorite"`
	} `json:"request"`
}

type createVaultArgs struct {
	Path      string `json:"path"`
	VaultName string `json:"vaultName"`
	Password  string `json:"password"`
}

type passwordArgs struct {
	Password string `json:"password"`
}

type vaultPasswordArgs struct {
	Path     string `json:"path"`
	Password string `json:"password"`
}

type sessionArgs struct {
	SessionID string `json:"sessionId"`
}

type createNoteArgs struct {
	VaultPath  string    `json:"vaultPath"`
	SessionID  string    `json:"sessionId"`
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	FolderPath *string   `json:"folderPath"`
	NoteType   *string   `json:"noteType"`
}

type noteIDArgs struct {
	VaultPath string `json:"vaultPath"`
	SessionID string `json:"sessionId"`
	NoteID    string `json:"noteId"`
}

type saveNoteArgs struct {
	VaultPath  string    `json:"vaultPath"`
	SessionID  string    `json:"sessionId"`
	NoteID     string    `json:"noteId"`
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	FolderPath *string   `json:"folderPath"`
}

type moveNoteArgs struct {
	VaultPath     string  `json:"vaultPath"`
	SessionID     string  `json:"sessionId"`
	NoteID        string  `json:"noteId"`
	NewFolderPath *string `json:"newFolderPath"`
}

type folderArgs struct {
	VaultPath  string `json:"vaultPath"`
	SessionID  string `json:"sessionId"`
	FolderPath string `json:"folderPath"`
}

type moveFolderArgs struct {
	VaultPath string `json:"vaultPath"`
	SessionID string `json:"sessionId"`
	OldPath   string `json:"oldPath"`
	NewPath   string `json:"newPath"`
}

type renameFolderArgs struct {
	VaultPath  string `json:"vaultPath"`
	SessionID  string `json:"sessionId"`
	FolderPath string `json:"folderPath"`
	NewName    string `json:"newName"`
}
