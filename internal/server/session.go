package server

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/whitespace-mcp/internal/whitespace"
)

// ErrUnknownSession is returned for a session id that was never opened or
// has been closed.
var ErrUnknownSession = errors.New("unknown session")

// session is one incremental whitespace search kept open between tool
// calls. A Finder is not safe for concurrent use, so every call holds mu.
type session struct {
	mu     sync.Mutex
	id     string
	path   string
	finder *whitespace.Finder
	origin image.Point
	found  int
}

// sessionStore maps session ids to open searches.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// open registers f under a new random id. origin is the top-left corner of
// the page f searches, which maps to (0,0) in f's raster.
func (st *sessionStore) open(path string, f *whitespace.Finder, origin image.Point) *session {
	sess := &session{
		id:     uuid.NewString(),
		path:   path,
		finder: f,
		origin: origin,
	}
	st.mu.Lock()
	st.sessions[sess.id] = sess
	st.mu.Unlock()
	return sess
}

func (st *sessionStore) get(id string) (*session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	return sess, nil
}

func (st *sessionStore) close(id string) (*session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, id)
	}
	delete(st.sessions, id)
	return sess, nil
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// addObstacles registers rects with the session's search.
func (sess *session) addObstacles(rects []image.Rectangle) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, r := range rects {
		sess.finder.AddObstacle(r.Sub(sess.origin))
	}
}

// next pulls up to count rectangles from the session's search. It stops
// early when the search is exhausted or a call runs out of budget.
func (sess *session) next(mode whitespace.Mode, count, maxIterations int) []image.Rectangle {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	var out []image.Rectangle
	for len(out) < count {
		r, ok := sess.finder.Next(mode, maxIterations)
		if !ok {
			break
		}
		out = append(out, r.Add(sess.origin))
	}
	sess.found += len(out)
	return out
}

// status reports the session state under its lock.
func (sess *session) status() (exhausted bool, pending, found int) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.finder.Exhausted(), sess.finder.Pending(), sess.found
}
