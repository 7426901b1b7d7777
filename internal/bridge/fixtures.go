package bridge

import "time"

// DefaultUnlockPassword is the fixture vault password accepted by the default
// unlock behavior.
const DefaultUnlockPassword = "Correct-Horse-42!"

// DefaultVaultPath is the path of the fixture vault selected as current.
const DefaultVaultPath = "/home/tester/Vaults/Personal"

// Fixtures is the in-memory fixture set backing default command behaviors.
// Reset restores it to fixed values between tests; ids are unique within each
// list and nothing else is guaranteed.
type Fixtures struct {
	UnlockPassword string
	Config         AppConfig
	Vaults         []KnownVault
	CurrentVaultID string
	Folders        []string
	Notes          []Note

	// Active session token, empty while locked.
	Session string

	// Unlock rate limiting: failures inside the current window.
	unlockFailures int
	lastFailure    time.Time
}

func fixtureTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic("bad fixture timestamp: " + s)
	}
	return t
}

// DefaultFixtures returns the fixed fixture set every test starts from.
func DefaultFixtures() *Fixtures {
	created := fixtureTime("2024-03-01T09:00:00Z")
	accessed := fixtureTime("2024-03-10T18:30:00Z")
	projects := "Projects"

	return &Fixtures{
		UnlockPassword: DefaultUnlockPassword,
		Config: AppConfig{
			Theme:               "system",
			AutoSaveInterval:    30,
			ShowMarkdownPreview: true,
			WindowMaximized:     false,
		},
		Vaults: []KnownVault{
			{
				ID:           "vault-personal",
				Name:         "Personal",
				Path:         DefaultVaultPath,
				CreatedAt:    created,
				LastAccessed: &accessed,
				IsFavorite:   true,
			},
			{
				ID:        "vault-work",
				Name:      "Work",
				Path:      "/home/tester/Vaults/Work",
				CreatedAt: created.Add(24 * time.Hour),
			},
		},
		CurrentVaultID: "vault-personal",
		Folders:        []string{"Projects", "Projects/Archive", "Journal"},
		Notes: []Note{
			{
				ID:        "note-1",
				Title:     "Welcome to Cocobolo",
				Content:   "# Welcome\n\nYour notes live in an encrypted vault.",
				NoteType:  "text",
				CreatedAt: created,
				UpdatedAt: created,
				Tags:      []string{"getting-started"},
			},
			{
				ID:         "note-2",
				Title:      "Roadmap",
				Content:    "- [ ] folders\n- [ ] tags\n- [x] encryption",
				NoteType:   "text",
				CreatedAt:  created.Add(2 * time.Hour),
				UpdatedAt:  accessed,
				Tags:       []string{"planning"},
				FolderPath: &projects,
			},
			{
				ID:        "note-3",
				Title:     "Reading List",
				Content:   "Designing Data-Intensive Applications",
				NoteType:  "text",
				CreatedAt: created.Add(3 * time.Hour),
				UpdatedAt: created.Add(3 * time.Hour),
				Tags:      []string{"books"},
			},
		},
	}
}

// CurrentVault returns the fixture vault marked current, or nil.
func (f *Fixtures) CurrentVault() *KnownVault {
	if f.CurrentVaultID == "" {
		return nil
	}
	for i := range f.Vaults {
		if f.Vaults[i].ID == f.CurrentVaultID {
			return &f.Vaults[i]
		}
	}
	return nil
}

// VaultInfo derives on-disk style metadata for the current vault.
func (f *Fixtures) VaultInfo() *VaultInfo {
	v := f.CurrentVault()
	if v == nil {
		return nil
	}
	return &VaultInfo{
		Name:        v.Name,
		CreatedAt:   v.CreatedAt,
		Version:     "1.0.0",
		IsEncrypted: true,
	}
}

func (f *Fixtures) noteByID(id string) *Note {
	for i := range f.Notes {
		if f.Notes[i].ID == id {
			return &f.Notes[i]
		}
	}
	return nil
}

func (f *Fixtures) hasFolder(path string) bool {
	for _, existing := range f.Folders {
		if existing == path {
			return true
		}
	}
	return false
}
