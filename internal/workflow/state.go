// AngelaMos | 2026
// state.go

package workflow

import (
	"strings"
	"sync"
)

// State is one user's pipeline progress. It lives in process memory
// only: a restart resets every user to an empty pipeline, which matches
// the session-scoped semantics of the product. Artifacts derived from a
// stale upstream step (image, model) are cleared whenever the step they
// derive from changes.
type State struct {
	mu             sync.Mutex
	documents      []string
	entities       []string
	selectedEntity string
	imagePNG       []byte
	modelGLB       []byte
	modelPath      string
}

// Snapshot is an immutable copy of a State for handlers and
// precondition checks.
type Snapshot struct {
	Documents      []string
	Entities       []string
	SelectedEntity string
	ImagePNG       []byte
	ModelGLB       []byte
	ModelPath      string
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Documents:      append([]string(nil), s.documents...),
		Entities:       append([]string(nil), s.entities...),
		SelectedEntity: s.selectedEntity,
		ImagePNG:       s.imagePNG,
		ModelGLB:       s.modelGLB,
		ModelPath:      s.modelPath,
	}
}

func (s *State) AppendDocument(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = append(s.documents, text)
	return len(s.documents)
}

// JoinedDocuments returns the corpus handed to entity extraction.
func (s *State) JoinedDocuments() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return strings.Join(s.documents, "\n\n"), len(s.documents)
}

// SetEntities replaces the extraction result. The previous selection,
// image, and model all derive from the old result, so they are reset;
// the selection defaults to the first entity.
func (s *State) SetEntities(entities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entities = entities
	s.selectedEntity = ""
	if len(entities) > 0 {
		s.selectedEntity = entities[0]
	}
	s.clearArtifactsLocked()
}

// SelectEntity switches the working entity. The match is exact against
// the stored spelling. Downstream artifacts are cleared on change.
func (s *State) SelectEntity(entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entities {
		if e == entity {
			if s.selectedEntity != entity {
				s.selectedEntity = entity
				s.clearArtifactsLocked()
			}
			return true
		}
	}
	return false
}

func (s *State) SetImage(png []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.imagePNG = png
	s.modelGLB = nil
	s.modelPath = ""
}

func (s *State) SetModel(glb []byte, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modelGLB = glb
	s.modelPath = path
}

func (s *State) clearArtifactsLocked() {
	s.imagePNG = nil
	s.modelGLB = nil
	s.modelPath = ""
}

// StateStore holds per-user pipeline state keyed by user ID.
type StateStore struct {
	mu     sync.RWMutex
	states map[int64]*State
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]*State)}
}

// Get returns the user's state, creating an empty one on first touch.
func (s *StateStore) Get(userID int64) *State {
	s.mu.RLock()
	state, ok := s.states[userID]
	s.mu.RUnlock()
	if ok {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok = s.states[userID]; ok {
		return state
	}
	state = &State{}
	s.states[userID] = state
	return state
}

func (s *StateStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, userID)
}
