package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/findfriends/tractor/service/internal/models"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPresetFile holds rules layered under every other preset in the
// directory. It may be absent.
const DefaultPresetFile = "default.yaml"

// PresetLoader reads rules presets from a directory of YAML files, one
// models.Preset per "<name>.yaml". Each preset is layered on default.yaml.
type PresetLoader struct {
	dir string

	mu    sync.RWMutex
	cache map[string]models.HouseRules
}

// NewPresetLoader reads presets from dir.
func NewPresetLoader(dir string) *PresetLoader {
	return &PresetLoader{dir: dir, cache: make(map[string]models.HouseRules)}
}

// Preset implements game.PresetSource. Results are cached until Invalidate.
func (l *PresetLoader) Preset(_ context.Context, name string) (models.HouseRules, error) {
	l.mu.RLock()
	h, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return h, nil
	}

	if !validPresetName(name) {
		return models.HouseRules{}, fmt.Errorf("%w: %q", models.ErrPresetNotFound, name)
	}
	base, _, err := readPreset(filepath.Join(l.dir, DefaultPresetFile))
	if err != nil {
		return models.HouseRules{}, fmt.Errorf("read %s: %w", DefaultPresetFile, err)
	}
	p, found, err := readPreset(filepath.Join(l.dir, name+".yaml"))
	if err != nil {
		return models.HouseRules{}, fmt.Errorf("read preset %q: %w", name, err)
	}
	if !found {
		return models.HouseRules{}, fmt.Errorf("%w: %q", models.ErrPresetNotFound, name)
	}
	h = base.Rules.Merge(p.Rules)

	l.mu.Lock()
	l.cache[name] = h
	l.mu.Unlock()
	return h, nil
}

// Invalidate clears the cache. Call after presets change on disk.
func (l *PresetLoader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]models.HouseRules)
}

// Watch invalidates the cache whenever a YAML file in the preset directory
// changes. It blocks until ctx ends.
func (l *PresetLoader) Watch(ctx context.Context, log logrus.FieldLogger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".yaml" || ev.Op == fsnotify.Chmod {
				continue
			}
			l.Invalidate()
			log.WithFields(logrus.Fields{"file": filepath.Base(ev.Name), "event": ev.Op.String()}).Info("presets changed, cache cleared")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("preset watcher error")
		}
	}
}

// Names lists the presets in the directory, sorted.
func (l *PresetLoader) Names() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range matches {
		base := filepath.Base(m)
		if base == DefaultPresetFile {
			continue
		}
		names = append(names, strings.TrimSuffix(base, ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// ValidateAll loads every preset and checks it converts to valid engine
// rules. All problems are reported together.
func (l *PresetLoader) ValidateAll(ctx context.Context) error {
	names, err := l.Names()
	if err != nil {
		return err
	}
	var problems []string
	for _, name := range names {
		h, err := l.Preset(ctx, name)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if _, err := h.ToEngine(); err != nil {
			problems = append(problems, fmt.Sprintf("preset %q: %v", name, err))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// readPreset loads one YAML preset. A missing file is (zero, false, nil).
func readPreset(path string) (models.Preset, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Preset{}, false, nil
		}
		return models.Preset{}, false, err
	}
	var p models.Preset
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return models.Preset{}, false, err
	}
	return p, true, nil
}

// validPresetName keeps lookups inside the preset directory.
func validPresetName(name string) bool {
	if name == "" || name == strings.TrimSuffix(DefaultPresetFile, ".yaml") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}
