package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nodal/internal/client"
	"nodal/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func authorOf(m models.Memo) string {
	if m.Author != nil {
		return "@" + m.Author.Username
	}
	return m.UserID
}

// writeMemo prints m and, one level deeper, its quote and replies.
func writeMemo(w io.Writer, m models.Memo, indent string) {
	var flags []string
	if m.IsPinned {
		flags = append(flags, "pinned")
	}
	if m.Visibility == models.VisibilityPrivate {
		flags = append(flags, "private")
	}
	header := fmt.Sprintf("%s%s  %s  %s", indent, m.ID, authorOf(m), m.CreatedAt.Local().Format(timeLayout))
	if len(flags) > 0 {
		header += "  [" + strings.Join(flags, ", ") + "]"
	}
	fmt.Fprintln(w, header)
	for _, line := range strings.Split(m.Content, "\n") {
		fmt.Fprintf(w, "%s  %s\n", indent, line)
	}
	for _, res := range m.Resources {
		fmt.Fprintf(w, "%s  + %s\n", indent, resourceLine(res))
	}
	if m.QuotedMemo != nil {
		fmt.Fprintf(w, "%s  > %s %s: %s\n", indent, m.QuotedMemo.ID, authorOf(*m.QuotedMemo), firstLine(m.QuotedMemo.Content))
	}
	for _, reply := range m.Replies {
		writeMemo(w, reply, indent+"    ")
	}
}

func resourceLine(r models.Resource) string {
	link := r.Path
	if r.ExternalLink != nil {
		link = *r.ExternalLink
	}
	return fmt.Sprintf("%s %s (%s, %d bytes) %s", r.ID, r.Filename, r.Type, r.Size, link)
}

func firstLine(s string) string {
	line, _, cut := strings.Cut(s, "\n")
	if cut {
		return line + " …"
	}
	return line
}

func writeMemos(w io.Writer, memos []models.Memo) {
	for i, m := range memos {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeMemo(w, m, "")
	}
}

func writeUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "%s (@%s)\n", u.ID, u.Username)
	fmt.Fprintf(w, "email:   %s\n", u.Email)
	if u.DisplayName != nil {
		fmt.Fprintf(w, "name:    %s\n", *u.DisplayName)
	}
	if u.AvatarURL != nil {
		fmt.Fprintf(w, "avatar:  %s\n", *u.AvatarURL)
	}
	if u.Bio != nil {
		fmt.Fprintf(w, "bio:     %s\n", *u.Bio)
	}
	fmt.Fprintf(w, "joined:  %s\n", u.CreatedAt.Local().Format(time.DateOnly))
}

// uploadFiles turns local paths into upload descriptors.
func uploadFiles(paths []string) ([]client.UploadFile, error) {
	files := make([]client.UploadFile, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}
		files = append(files, client.UploadFile{
			Filename: filepath.Base(p),
			Size:     info.Size(),
			Open: func() (io.ReadCloser, error) {
				return os.Open(p)
			},
		})
	}
	return files, nil
}
