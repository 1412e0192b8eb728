// Package analytics persists scan sessions and their per-frame analytics in
// a bbolt database.
package analytics

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"cardscan/internal/detect"
	"cardscan/internal/scan"

	cbor "github.com/brianolson/cbor_go"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	sessionsBucket = "sessions"
	framesBucket   = "frames"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session summarizes one scan. Times are Unix milliseconds. The card number
// itself is never stored.
type Session struct {
	ID          string `cbor:"id"`
	Orientation string `cbor:"o"`
	Started     int64  `cbor:"s"`
	Finished    int64  `cbor:"f"`
	Frames      uint32 `cbor:"n"`
	Complete    bool   `cbor:"c"`
	CardType    string `cbor:"t"`
	NumDigits   int    `cbor:"d"`
}

// Store is a session database. It is safe for concurrent use.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{sessionsBucket, framesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession records a new session and returns it.
func (s *Store) StartSession(o detect.Orientation) (Session, error) {
	sess := Session{
		ID:          uuid.NewString(),
		Orientation: o.String(),
		Started:     s.now().UnixMilli(),
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return putSession(tx, sess)
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to start session: %w", err)
	}
	return sess, nil
}

// RecordFrame stores the analytics of one frame under the session, keyed by
// the frame index.
func (s *Store) RecordFrame(id string, f scan.FrameAnalytics) error {
	data, err := cbor.Dumps(f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		sess, err := getSession(tx, id)
		if err != nil {
			return err
		}
		frames, err := tx.Bucket([]byte(framesBucket)).CreateBucketIfNotExists([]byte(id))
		if err != nil {
			return err
		}
		var key [4]byte
		binary.BigEndian.PutUint32(key[:], f.Index)
		if frames.Get(key[:]) == nil {
			sess.Frames++
		}
		if err := frames.Put(key[:], data); err != nil {
			return err
		}
		return putSession(tx, sess)
	})
}

// FinishSession stores the outcome of a session.
func (s *Store) FinishSession(id string, r scan.Result) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sess, err := getSession(tx, id)
		if err != nil {
			return err
		}
		sess.Finished = s.now().UnixMilli()
		sess.Complete = r.Complete
		sess.NumDigits = r.NNumbers
		sess.CardType = ""
		if r.Complete {
			sess.CardType = r.CardType.String()
		}
		return putSession(tx, sess)
	})
}

// Session returns the session with the given ID.
func (s *Store) Session(id string) (Session, error) {
	var sess Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		sess, err = getSession(tx, id)
		return err
	})
	return sess, err
}

// Sessions returns every session ordered by start time.
func (s *Store) Sessions() ([]Session, error) {
	var out []Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).ForEach(func(k, v []byte) error {
			var sess Session
			if err := cbor.Loads(v, &sess); err != nil {
				return fmt.Errorf("failed to decode session %s: %w", k, err)
			}
			out = append(out, sess)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out, func(a, b Session) int { return cmp.Compare(a.Started, b.Started) })
	return out, nil
}

// Frames returns the frames recorded for a session in index order.
func (s *Store) Frames(id string) ([]scan.FrameAnalytics, error) {
	var out []scan.FrameAnalytics
	err := s.db.View(func(tx *bbolt.Tx) error {
		if _, err := getSession(tx, id); err != nil {
			return err
		}
		frames := tx.Bucket([]byte(framesBucket)).Bucket([]byte(id))
		if frames == nil {
			return nil
		}
		return frames.ForEach(func(k, v []byte) error {
			var f scan.FrameAnalytics
			if err := cbor.Loads(v, &f); err != nil {
				return fmt.Errorf("failed to decode frame %d: %w", binary.BigEndian.Uint32(k), err)
			}
			out = append(out, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getSession(tx *bbolt.Tx, id string) (Session, error) {
	data := tx.Bucket([]byte(sessionsBucket)).Get([]byte(id))
	if data == nil {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var sess Session
	if err := cbor.Loads(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return sess, nil
}

func putSession(tx *bbolt.Tx, sess Session) error {
	data, err := cbor.Dumps(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return tx.Bucket([]byte(sessionsBucket)).Put([]byte(sess.ID), data)
}
