package bridge

import (
	"context"
	"sort"
	"strings"

	"github.com/cocobolo/uitest/internal/errs"
)

func (d *Dispatcher) getFoldersList(_ context.Context, _ Call) (any, error) {
	folders := make([]string, len(d.fx.Folders))
	copy(folders, d.fx.Folders)
	sort.Strings(folders)
	return folders, nil
}

func (d *Dispatcher) createFolder(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[folderArgs](call.Args)
	if err != nil {
		return nil, err
	}
	folder := strings.Trim(strings.TrimSpace(args.FolderPath), "/")
	if folder == "" {
		return nil, errs.New(errs.InvalidArgument, "Folder name cannot be empty")
	}
	if d.fx.hasFolder(folder) {
		return nil, errs.New(errs.InvalidArgument, "A folder with this name already exists")
	}
	if parent := parentFolder(folder); parent != "" && !d.fx.hasFolder(parent) {
		return nil, errs.New(errs.NotFound, "Parent folder does not exist")
	}
	d.fx.Folders = append(d.fx.Folders, folder)
	return nil, nil
}

func (d *Dispatcher) deleteFolder(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[folderArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if !d.fx.hasFolder(args.FolderPath) {
		return false, nil
	}

	kept := d.fx.Folders[:0]
	for _, f := range d.fx.Folders {
		if f == args.FolderPath || strings.HasPrefix(f, args.FolderPath+"/") {
			continue
		}
		kept = append(kept, f)
	}
	d.fx.Folders = kept

	// Notes inside a deleted folder fall back to the vault root.
	for i := range d.fx.Notes {
		fp := d.fx.Notes[i].FolderPath
		if fp == nil {
			continue
		}
		if *fp == args.FolderPath || strings.HasPrefix(*fp, args.FolderPath+"/") {
			d.fx.Notes[i].FolderPath = nil
		}
	}
	return true, nil
}

func (d *Dispatcher) moveFolder(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[moveFolderArgs](call.Args)
	if err != nil {
		return nil, err
	}
	return d.moveFolderLocked(args.OldPath, args.NewPath), nil
}

func (d *Dispatcher) renameFolder(_ context.Context, call Call) (any, error) {
	args, err := decodeArgs[renameFolderArgs](call.Args)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.NewName) == "" || strings.Contains(args.NewName, "/") {
		return false, nil
	}
	newPath := args.NewName
	if parent := parentFolder(args.FolderPath); parent != "" {
		newPath = parent + "/" + args.NewName
	}
	return d.moveFolderLocked(args.FolderPath, newPath), nil
}

func (d *Dispatcher) moveFolderLocked(oldPath, newPath string) bool {
	if oldPath == newPath || newPath == "" {
		return false
	}
	if !d.fx.hasFolder(oldPath) || d.fx.hasFolder(newPath) {
		return false
	}
	// Cannot move a folder into its own subtree.
	if strings.HasPrefix(newPath, oldPath+"/") {
		return false
	}

	rewrite := func(p string) (string, bool) {
		if p == oldPath {
			return newPath, true
		}
		if strings.HasPrefix(p, oldPath+"/") {
			return newPath + p[len(oldPath):], true
		}
		return p, false
	}

	for i, f := range d.fx.Folders {
		if next, changed := rewrite(f); changed {
			d.fx.Folders[i] = next
		}
	}
	for i := range d.fx.Notes {
		fp := d.fx.Notes[i].FolderPath
		if fp == nil {
			continue
		}
		if next, changed := rewrite(*fp); changed {
			d.fx.Notes[i].FolderPath = &next
		}
	}
	return true
}

func parentFolder(p string) string {
	if idx := strings.LastIndex(p, "/"); idx > 0 {
		return p[:idx]
	}
	return ""
}
