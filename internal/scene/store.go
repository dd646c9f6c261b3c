package scene

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storybuilder/internal/domain"
	"storybuilder/internal/storage"
)

// Storage keys for the single latest-snapshot layout. The store keeps one
// active scene at a time; writing a new scene replaces the previous one and
// invalidates its derived assets.
const (
	sceneKey         = "scene.json"
	compositeKey     = "scene_composite.png"
	compositeDescKey = "scene_composite.txt"
	musicKey         = "scene_music.mp3"
	rawOutputKey     = "output/generated_video_raw.mp4"
	outputKey        = "output/generated_video.mp4"
	portraitsDir     = "characters"
	runsDir          = "runs"
)

// Store persists the active scene snapshot and its derived media assets on a
// FileStore root.
type Store struct {
	files *storage.FileStore
}

// NewStore wraps a file store with the scene snapshot layout.
func NewStore(files *storage.FileStore) *Store {
	return &Store{files: files}
}

// SaveScene replaces the active scene snapshot wholesale.
func (s *Store) SaveScene(ctx context.Context, sc *domain.Scene) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	if _, err := s.files.Write(ctx, sceneKey, data); err != nil {
		return err
	}
	return nil
}

// LoadScene returns the active scene, or domain.ErrNotFound when no scene
// has been saved yet.
func (s *Store) LoadScene(ctx context.Context) (*domain.Scene, error) {
	data, err := s.files.Read(ctx, sceneKey)
	if err != nil {
		return nil, err
	}
	var sc domain.Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scene: decode snapshot: %w", err)
	}
	return &sc, nil
}

// SaveComposite stores the scene's composite reference image and returns its
// absolute path. Any description of a previous composite is dropped so a
// stale text never describes the new image.
func (s *Store) SaveComposite(ctx context.Context, data []byte) (string, error) {
	if _, err := s.files.Write(ctx, compositeKey, data); err != nil {
		return "", err
	}
	if err := s.files.RemoveAll(compositeDescKey); err != nil {
		return "", err
	}
	return s.files.AbsPath(compositeKey)
}

// SaveCompositeDescription stores the vision model's description of the
// current composite image.
func (s *Store) SaveCompositeDescription(ctx context.Context, text string) error {
	_, err := s.files.Write(ctx, compositeDescKey, []byte(text))
	return err
}

// CompositeDescription returns the stored description, or "" when the
// composite has never been described.
func (s *Store) CompositeDescription(ctx context.Context) string {
	data, err := s.files.Read(ctx, compositeDescKey)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// CompositePath returns the composite image path when one exists.
func (s *Store) CompositePath() (string, bool) {
	if !s.files.Exists(compositeKey) {
		return "", false
	}
	path, err := s.files.AbsPath(compositeKey)
	return path, err == nil
}

// SavePortrait stores a character portrait keyed by character name.
func (s *Store) SavePortrait(ctx context.Context, name string, data []byte) (string, error) {
	key := portraitsDir + "/" + slugify(name) + ".png"
	if _, err := s.files.Write(ctx, key, data); err != nil {
		return "", err
	}
	return s.files.AbsPath(key)
}

// PortraitPath returns a character's portrait path when one exists.
func (s *Store) PortraitPath(name string) (string, bool) {
	key := portraitsDir + "/" + slugify(name) + ".png"
	if !s.files.Exists(key) {
		return "", false
	}
	path, err := s.files.AbsPath(key)
	return path, err == nil
}

// SaveMusic stores the scene's background track and returns its path.
func (s *Store) SaveMusic(ctx context.Context, data []byte) (string, error) {
	if _, err := s.files.Write(ctx, musicKey, data); err != nil {
		return "", err
	}
	return s.files.AbsPath(musicKey)
}

// MusicPath returns the background track path when one exists.
func (s *Store) MusicPath() (string, bool) {
	if !s.files.Exists(musicKey) {
		return "", false
	}
	path, err := s.files.AbsPath(musicKey)
	return path, err == nil
}

// RawOutputPath is where the music-free concatenated video lands. The file
// is created by the pipeline, not the store.
func (s *Store) RawOutputPath() (string, error) {
	if _, err := s.files.EnsureDir("output"); err != nil {
		return "", err
	}
	return s.files.AbsPath(rawOutputKey)
}

// OutputPath is the final deliverable location, replaced atomically on each
// successful run or remix.
func (s *Store) OutputPath() (string, error) {
	if _, err := s.files.EnsureDir("output"); err != nil {
		return "", err
	}
	return s.files.AbsPath(outputKey)
}

// HasRawOutput reports whether a previous run left a concatenated video to
// remix against.
func (s *Store) HasRawOutput() bool {
	return s.files.Exists(rawOutputKey)
}

// NewRunDir allocates a scratch directory for one generation run's segment
// clips and seed frames.
func (s *Store) NewRunDir() (id string, dir string, err error) {
	id = uuid.NewString()
	dir, err = s.files.EnsureDir(runsDir + "/" + id)
	return id, dir, err
}

// CleanupRun removes a run's scratch directory. Failures are ignorable;
// callers log and move on.
func (s *Store) CleanupRun(id string) error {
	return s.files.RemoveAll(runsDir + "/" + id)
}

// slugify maps a character name onto a stable, filesystem-safe token.
func slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}
