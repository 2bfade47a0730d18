// SPDX-License-Identifier: Apache-2.0

package translit

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/collatex-critical/critedit/internal/edition"
)

// protected matches footnote markers, witness tags and the lacuna sign.
// SLP1 uses ASCII letters for sounds, so "[A,B]" would otherwise come out
// as Devanagari.
var protected = regexp.MustCompile(`\[\^\d+\]|\[[^\]]+\]|` + regexp.QuoteMeta(edition.Lacuna))

type piece struct {
	lead, core, trail string
	keep              bool
}

func (p piece) String() string {
	return p.lead + p.core + p.trail
}

func split(s string) []piece {
	var pieces []piece
	last := 0
	for _, loc := range protected.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			pieces = append(pieces, plain(s[last:loc[0]]))
		}
		pieces = append(pieces, piece{core: s[loc[0]:loc[1]], keep: true})
		last = loc[1]
	}
	if last < len(s) {
		pieces = append(pieces, plain(s[last:]))
	}
	return pieces
}

func plain(s string) piece {
	core := strings.TrimSpace(s)
	if core == "" {
		return piece{lead: s, keep: true}
	}
	start := strings.Index(s, core)
	return piece{lead: s[:start], core: core, trail: s[start+len(core):]}
}

// batch gathers the translatable text of several documents so that the
// transliterator runs once for all of them.
type batch struct {
	docs [][]piece
}

func (b *batch) add(s string) int {
	b.docs = append(b.docs, split(s))
	return len(b.docs) - 1
}

func (b *batch) run(ctx context.Context, t Transliterator, from, to string) error {
	var targets []*piece
	multiline := false
	for i := range b.docs {
		for j := range b.docs[i] {
			p := &b.docs[i][j]
			if p.keep {
				continue
			}
			targets = append(targets, p)
			multiline = multiline || strings.Contains(p.core, "\n")
		}
	}
	if len(targets) == 0 {
		return nil
	}

	if multiline {
		for _, p := range targets {
			out, err := t.Transliterate(ctx, p.core, from, to)
			if err != nil {
				return err
			}
			p.core = out
		}
		return nil
	}

	lines := make([]string, len(targets))
	for i, p := range targets {
		lines[i] = p.core
	}
	out, err := t.Transliterate(ctx, strings.Join(lines, "\n"), from, to)
	if err != nil {
		return err
	}
	got := strings.Split(out, "\n")
	if len(got) != len(targets) {
		return fmt.Errorf("%w: sent %d, got %d", ErrSegmentCount, len(targets), len(got))
	}
	for i, p := range targets {
		p.core = got[i]
	}
	return nil
}

func (b *batch) text(i int) string {
	var sb strings.Builder
	for _, p := range b.docs[i] {
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Text transliterates s, leaving markers, witness tags and Φ as they are.
func Text(ctx context.Context, t Transliterator, s, from, to string) (string, error) {
	if from == to {
		return s, nil
	}
	var b batch
	i := b.add(s)
	if err := b.run(ctx, t, from, to); err != nil {
		return "", err
	}
	return b.text(i), nil
}

// Edition returns a copy of ed with its running text and footnote
// readings transliterated. Witness ids and statistics are kept.
func Edition(ctx context.Context, t Transliterator, ed *edition.Edition, from, to string) (*edition.Edition, error) {
	out := &edition.Edition{
		Body:      ed.Body,
		Footnotes: make([]edition.Footnote, len(ed.Footnotes)),
		Stats:     ed.Stats,
	}
	for i, f := range ed.Footnotes {
		out.Footnotes[i] = edition.Footnote{Number: f.Number, Entries: append([]edition.Entry(nil), f.Entries...)}
	}
	if from == to {
		return out, nil
	}

	var b batch
	body := b.add(ed.Body)
	entries := make([][]int, len(out.Footnotes))
	for i, f := range out.Footnotes {
		entries[i] = make([]int, len(f.Entries))
		for j, e := range f.Entries {
			entries[i][j] = b.add(e.Text)
		}
	}
	if err := b.run(ctx, t, from, to); err != nil {
		return nil, fmt.Errorf("transliterating edition from %s to %s: %w", from, to, err)
	}

	out.Body = b.text(body)
	for i := range out.Footnotes {
		for j := range out.Footnotes[i].Entries {
			out.Footnotes[i].Entries[j].Text = b.text(entries[i][j])
		}
	}
	return out, nil
}
