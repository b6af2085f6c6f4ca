package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fpang/cinema-studio/internal/production"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// Prompter reads answers to interactive questions line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and printing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Line asks one question. Returns def if the user enters nothing or input
// cannot be read.
func (p *Prompter) Line(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	input, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Str("question", label).Msg("Failed to read input")
		return def
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// SynopsisInput asks for the brainstorming fields, keeping any already set.
func (p *Prompter) SynopsisInput(in production.SynopsisInput) production.SynopsisInput {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Describe the story (every field is optional, the subject helps most):")
	in.Subject = p.Line("Subject", in.Subject)
	in.Protagonist = p.Line("Protagonist", in.Protagonist)
	in.Background = p.Line("Background", in.Background)
	in.Incident = p.Line("Inciting incident", in.Incident)
	in.Emotion = p.Line("Emotional arc", in.Emotion)
	return in
}

// PickOutputPath opens a native save dialog for the archive. The bool is
// false when the user cancels.
func PickOutputPath(defaultName string) (string, bool, error) {
	path, err := zenity.SelectFileSave(
		zenity.Title("Save production package"),
		zenity.Filename(defaultName),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{
			{Name: "Zip archives", Patterns: []string{"*.zip"}},
		},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("save dialog failed: %w", err)
	}
	return path, true, nil
}
