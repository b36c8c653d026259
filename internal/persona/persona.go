// Package persona holds the assistant's system instruction as injected
// configuration, optionally loaded from files and reloaded on change.
package persona

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultInstruction = "You are a portfolio assistant for %s, a product & UX designer. " +
	"Answer briefly and clearly, focusing on fintech expertise, case studies and design decisions. " +
	"Ground every answer in the facts you were given and do not invent details. " +
	"Reply in the same language as the user's message."

// Persona is the fixed framing applied to every outbound prompt.
type Persona struct {
	Instruction string
	Suggestions []string
	Version     string
}

// New builds a Persona and fingerprints its instruction.
func New(instruction string, suggestions []string) *Persona {
	sum := sha256.Sum256([]byte(instruction))
	return &Persona{
		Instruction: instruction,
		Suggestions: suggestions,
		Version:     hex.EncodeToString(sum[:8]),
	}
}

// DefaultInstruction is the built-in persona for the named designer.
func DefaultInstruction(designerName string) string {
	return fmt.Sprintf(defaultInstruction, designerName)
}

// Sources describes where the persona comes from.
type Sources struct {
	DesignerName    string
	InstructionPath string
	FactsPath       string
	Suggestions     []string
}

type Store struct {
	current atomic.Pointer[Persona]
	src     Sources
	log     *zap.Logger
}

// NewStore loads the persona once. Unreadable files are a startup error.
func NewStore(src Sources, log *zap.Logger) (*Store, error) {
	s := &Store{src: src, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Static returns a store that always serves p.
func Static(p *Persona) *Store {
	s := &Store{log: zap.NewNop()}
	s.current.Store(p)
	return s
}

func (s *Store) Current() *Persona {
	return s.current.Load()
}

// Reload rebuilds the persona from its sources. On failure the previous
// persona stays active.
func (s *Store) Reload() error {
	p, err := load(s.src)
	if err != nil {
		return err
	}
	s.current.Store(p)
	return nil
}

func load(src Sources) (*Persona, error) {
	instruction := DefaultInstruction(src.DesignerName)
	if src.InstructionPath != "" {
		text, err := ExtractText(src.InstructionPath)
		if err != nil {
			return nil, fmt.Errorf("loading persona instruction: %w", err)
		}
		instruction = text
	}

	if src.FactsPath != "" {
		facts, err := ExtractText(src.FactsPath)
		if err != nil {
			return nil, fmt.Errorf("loading persona facts: %w", err)
		}
		instruction += "\n\nProfile facts (use only these, do not invent details):\n" + facts
	}

	return New(instruction, src.Suggestions), nil
}

// Watch reloads the store whenever one of its source files is written or
// replaced. It returns once the watcher is running; the watcher stops with ctx.
func (s *Store) Watch(ctx context.Context) error {
	files := s.watchedFiles()
	if len(files) == 0 {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Directories are watched so editors that replace files by rename are seen.
	dirs := make(map[string]struct{})
	for f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if _, watched := files[filepath.Clean(event.Name)]; !watched {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.log.Warn("persona reload failed, keeping previous version",
						zap.String("file", event.Name), zap.Error(err))
					continue
				}
				s.log.Info("persona reloaded",
					zap.String("file", event.Name), zap.String("version", s.Current().Version))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("persona watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}

func (s *Store) watchedFiles() map[string]struct{} {
	files := make(map[string]struct{})
	for _, p := range []string{s.src.InstructionPath, s.src.FactsPath} {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		files[filepath.Clean(p)] = struct{}{}
	}
	return files
}
