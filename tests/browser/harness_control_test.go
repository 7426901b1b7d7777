// Tests that drive the UI against reconfigured bridge behavior: forced
// errors, stubbed values, and call counting.
package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/cocobolo/uitest/internal/bridge"
	"github.com/cocobolo/uitest/internal/errs"
)

func TestHarness_StubbedSaveErrorSurfacesInEditor(t *testing.T) {
	env := SetupHarnessTestEnv(t)
	env.InitBrowser(t)
	page := env.NewPage(t)
	defer page.Close()

	env.UnlockPersonalVault(t, page)
	openFixtureNote(t, page, "note-1")

	env.Bridge.StubError("save_note", errs.New(errs.Internal, "Disk full. Could not save note."))

	if err := page.Locator("#save-note-button").Click(); err != nil {
		t.Fatalf("Failed to click save: %v", err)
	}
	waitForTextContains(t, page, "#editor-error", "Disk full")

	// Restoring the default behavior lets the save go through.
	env.Bridge.Unstub("save_note")
	if err := page.Locator("#save-note-button").Click(); err != nil {
		t.Fatalf("Failed to click save: %v", err)
	}
	_, err := page.WaitForFunction(
		`() => document.getElementById('editor-error').textContent === ''`,
		nil,
		playwright.PageWaitForFunctionOptions{Timeout: playwright.Float(browserMaxTimeoutMS)},
	)
	if err != nil {
		t.Fatalf("Editor error did not clear after successful save: %v", err)
	}
}

func TestHarness_StubbedNotesListControlsSidebar(t *testing.T) {
	env := SetupHarnessTestEnv(t)
	env.InitBrowser(t)
	page := env.NewPage(t)
	defer page.Close()

	env.Bridge.StubValue("get_notes_list", []bridge.NoteMetadata{
		{ID: "stub-1", Title: "Stubbed Note", NoteType: "text"},
	})

	env.OpenShell(t, page)
	env.SelectPersonalVault(t, page)
	SubmitUnlock(t, page, bridge.DefaultUnlockPassword)
	WaitForSelector(t, page, "#app-screen.active")

	WaitForSelector(t, page, ".note-item[data-note-id='stub-1']")
	waitForTextContains(t, page, "#notes-list", "Stubbed Note")

	count, err := page.Locator(".note-item").Count()
	if err != nil {
		t.Fatalf("Failed to count notes: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected only the stubbed note, got %d items", count)
	}
}

func TestHarness_CallCountsTrackUIActions(t *testing.T) {
	env := SetupHarnessTestEnv(t)
	env.InitBrowser(t)
	page := env.NewPage(t)
	defer page.Close()

	env.UnlockPersonalVault(t, page)

	if got := env.Bridge.CallCount("unlock_vault"); got != 1 {
		t.Errorf("Expected 1 unlock_vault call, got %d", got)
	}
	if got := env.Bridge.CallCount("get_notes_list"); got == 0 {
		t.Error("Expected the app screen to have fetched the notes list")
	}
}
