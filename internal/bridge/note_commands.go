package bridge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cocobolo/uitest/internal/errs"
)

const (
	defaultNoteTitle = "Untitled Note"
	defaultNoteType  = "text"
	maxNoteTitleLen  = 255
	previewLen       = 100
)

func contentPreview(content string) string {
	trimmed := strings.TrimSpace(content)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if len(trimmed) > previewLen {
		trimmed = trimmed[:previewLen]
	}
	return trimmed
}

func noteTitleIssue(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Note title cannot be empty"
	}
	if len(title) > maxNoteTitleLen {
		return fmt.Sprintf("Note title cannot exceed %d characters", maxNoteTitleLen)
	}
	return ""
}

func (d *Dispatcher) createNote(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[createNoteArgs](call.Args)
	if err != nil {
		return nil, err
	}

	title := defaultNoteTitle
	if args.Title != nil {
		title = *args.Title
	}
	if issue := noteTitleIssue(title); issue != "" {
		return CreateNoteResult{ErrorMessage: &issue}, nil
	}
	if args.FolderPath != nil && !d.fx.hasFolder(*args.FolderPath) {
		msg := fmt.Sprintf("Folder %q does not exist", *args.FolderPath)
		return CreateNoteResult{ErrorMessage: &msg}, nil
	}

	now := d.clock.Now().UTC()
	note := Note{
		ID:        uuid.NewString(),
		Title:     title,
		NoteType:  defaultNoteType,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}
	if args.Content != nil {
		note.Content = *args.Content
	}
	if args.Tags != nil {
		note.Tags = append(note.Tags, (*args.Tags)...)
	}
	if args.FolderPath != nil {
		note.FolderPath = args.FolderPath
	}
	if args.NoteType != nil && *args.NoteType != "" {
		note.NoteType = *args.NoteType
	}

	d.fx.Notes = append(d.fx.Notes, note)
	return CreateNoteResult{Success: true, Note: &note}, nil
}

func (d *Dispatcher) getNotesList(_ context.Context, _ Call) (any, error) {
	list := make([]NoteMetadata, 0, len(d.fx.Notes))
	for _, n := range d.fx.Notes {
		list = append(list, NoteMetadata{
			ID:             n.ID,
			Title:          n.Title,
			CreatedAt:      n.CreatedAt,
			UpdatedAt:      n.UpdatedAt,
			Tags:           n.Tags,
			FolderPath:     n.FolderPath,
			NoteType:       n.NoteType,
			ContentPreview: contentPreview(n.Content),
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

func (d *Dispatcher) loadNote(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[noteIDArgs](call.Args)
	if err != nil {
		return nil, err
	}
	note := d.fx.noteByID(args.NoteID)
	if note == nil {
		return nil, errs.New(errs.NotFound, "Note not found.")
	}
	return *note, nil
}

func (d *Dispatcher) saveNote(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[saveNoteArgs](call.Args)
	if err != nil {
		return nil, err
	}

	note := d.fx.noteByID(args.NoteID)
	if note == nil {
		msg := "Note not found."
		return SaveNoteResult{ErrorMessage: &msg}, nil
	}
	if args.Title != nil {
		if issue := noteTitleIssue(*args.Title); issue != "" {
			return SaveNoteResult{ErrorMessage: &issue}, nil
		}
		note.Title = *args.Title
	}
	if args.Content != nil {
		note.Content = *args.Content
	}
	if args.Tags != nil {
		note.Tags = append([]string{}, (*args.Tags)...)
	}
	if args.FolderPath != nil {
		if !d.fx.hasFolder(*args.FolderPath) {
			msg := fmt.Sprintf("Folder %q does not exist", *args.FolderPath)
			return SaveNoteResult{ErrorMessage: &msg}, nil
		}
		note.FolderPath = args.FolderPath
	}
	note.UpdatedAt = d.clock.Now().UTC()

	saved := *note
	return SaveNoteResult{Success: true, Note: &saved}, nil
}

func (d *Dispatcher) deleteNote(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[noteIDArgs](call.Args)
	if err != nil {
		return nil, err
	}
	for i := range d.fx.Notes {
		if d.fx.Notes[i].ID == args.NoteID {
			d.fx.Notes = append(d.fx.Notes[:i], d.fx.Notes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (d *Dispatcher) moveNote(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[moveNoteArgs](call.Args)
	if err != nil {
		return nil, err
	}
	note := d.fx.noteByID(args.NoteID)
	if note == nil {
		return false, nil
	}
	if args.NewFolderPath != nil && !d.fx.hasFolder(*args.NewFolderPath) {
		return false, nil
	}
	note.FolderPath = args.NewFolderPath
	note.UpdatedAt = d.clock.Now().UTC()
	return true, nil
}
