package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/ddaud1/faasten-host/internal/buckle"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketDirectories       = []byte("directories")
	bucketFiles             = []byte("files")
	bucketFacetedDirs       = []byte("faceted_directories")
	bucketBlobs             = []byte("blobs")
	bucketGates             = []byte("gates")
	bucketServices          = []byte("services")
	bucketMeta              = []byte("meta")
	metaKeyRoot             = []byte("root_ref")
)

// BoltStore is the bbolt-backed implementation of Store. One bucket
// per object kind, each keyed by an opaque uuid object-ref and holding
// a JSON-encoded record.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if absent) the backing file at dataDir/backing.fstn
// and ensures every bucket exists.
func Open(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "backing.fstn")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketDirectories, bucketFiles, bucketFacetedDirs, bucketBlobs, bucketGates, bucketServices, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Initialize seeds a public root Directory if one has not already been
// created, recording its object-ref in the meta bucket.
func (s *BoltStore) Initialize() (bool, string, error) {
	var rootRef string
	var created bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		existing := meta.Get(metaKeyRoot)
		if existing != nil {
			rootRef = string(existing)
			return nil
		}
		rootRef = uuid.New().String()
		root := &Directory{ID: rootRef, Label: buckle.Public(), Entries: map[string]string{}}
		data, err := json.Marshal(root)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketDirectories).Put([]byte(rootRef), data); err != nil {
			return err
		}
		created = true
		return meta.Put(metaKeyRoot, []byte(rootRef))
	})
	return created, rootRef, err
}

func put(tx *bolt.Tx, bucket []byte, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(key), data)
}

func get(tx *bolt.Tx, bucket []byte, key string, v interface{}) error {
	data := tx.Bucket(bucket).Get([]byte(key))
	if data == nil {
		return ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (s *BoltStore) CreateDirectory(d *Directory) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Entries == nil {
		d.Entries = map[string]string{}
	}
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketDirectories, d.ID, d) })
}

func (s *BoltStore) GetDirectory(ref string) (*Directory, error) {
	d := &Directory{}
	err := s.db.View(func(tx *bolt.Tx) error { return get(tx, bucketDirectories, ref, d) })
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *BoltStore) ReplaceDirectory(d *Directory) error {
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketDirectories, d.ID, d) })
}

// Link inserts or overwrites (last-write-wins) the name->target entry
// in the directory's map.
func (s *BoltStore) Link(dirRef, name, targetRef string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		d := &Directory{}
		if err := get(tx, bucketDirectories, dirRef, d); err != nil {
			return err
		}
		if d.Entries == nil {
			d.Entries = map[string]string{}
		}
		d.Entries[name] = targetRef
		return put(tx, bucketDirectories, d.ID, d)
	})
}

func (s *BoltStore) Unlink(dirRef, name string) (bool, error) {
	var removed bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		d := &Directory{}
		if err := get(tx, bucketDirectories, dirRef, d); err != nil {
			return err
		}
		if _, ok := d.Entries[name]; ok {
			delete(d.Entries, name)
			removed = true
			return put(tx, bucketDirectories, d.ID, d)
		}
		return nil
	})
	return removed, err
}

func (s *BoltStore) CreateFile(f *File) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketFiles, f.ID, f) })
}

func (s *BoltStore) GetFile(ref string) (*File, error) {
	f := &File{}
	err := s.db.View(func(tx *bolt.Tx) error { return get(tx, bucketFiles, ref, f) })
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *BoltStore) ReplaceFile(f *File) error {
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketFiles, f.ID, f) })
}

func (s *BoltStore) CreateFacetedDirectory(fd *FacetedDirectory) error {
	if fd.ID == "" {
		fd.ID = uuid.New().String()
	}
	if fd.Facets == nil {
		fd.Facets = map[string]string{}
	}
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketFacetedDirs, fd.ID, fd) })
}

func (s *BoltStore) GetFacetedDirectory(ref string) (*FacetedDirectory, error) {
	fd := &FacetedDirectory{}
	err := s.db.View(func(tx *bolt.Tx) error { return get(tx, bucketFacetedDirs, ref, fd) })
	if err != nil {
		return nil, err
	}
	return fd, nil
}

// FacetOpen returns the object-ref of the Directory bound to labelKey,
// creating (and persisting) a fresh empty Directory if absent.
func (s *BoltStore) FacetOpen(fdRef string, labelKey string) (string, bool, error) {
	var dirRef string
	var created bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		fd := &FacetedDirectory{}
		if err := get(tx, bucketFacetedDirs, fdRef, fd); err != nil {
			return err
		}
		if fd.Facets == nil {
			fd.Facets = map[string]string{}
		}
		if ref, ok := fd.Facets[labelKey]; ok {
			dirRef = ref
			return nil
		}
		dirRef = uuid.New().String()
		dir := &Directory{ID: dirRef, Entries: map[string]string{}}
		if err := put(tx, bucketDirectories, dir.ID, dir); err != nil {
			return err
		}
		fd.Facets[labelKey] = dirRef
		created = true
		return put(tx, bucketFacetedDirs, fd.ID, fd)
	})
	return dirRef, created, err
}

func (s *BoltStore) CreateBlob(b *Blob) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketBlobs, b.ID, b) })
}

func (s *BoltStore) GetBlob(ref string) (*Blob, error) {
	b := &Blob{}
	err := s.db.View(func(tx *bolt.Tx) error { return get(tx, bucketBlobs, ref, b) })
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BoltStore) ReplaceBlob(b *Blob) error {
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketBlobs, b.ID, b) })
}

func (s *BoltStore) CreateGate(g *Gate) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketGates, g.ID, g) })
}

func (s *BoltStore) GetGate(ref string) (*Gate, error) {
	g := &Gate{}
	err := s.db.View(func(tx *bolt.Tx) error { return get(tx, bucketGates, ref, g) })
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *BoltStore) ReplaceGate(g *Gate) error {
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketGates, g.ID, g) })
}

func (s *BoltStore) CreateService(svc *Service) error {
	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketServices, svc.ID, svc) })
}

func (s *BoltStore) GetService(ref string) (*Service, error) {
	svc := &Service{}
	err := s.db.View(func(tx *bolt.Tx) error { return get(tx, bucketServices, ref, svc) })
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *BoltStore) ReplaceService(svc *Service) error {
	return s.db.Update(func(tx *bolt.Tx) error { return put(tx, bucketServices, svc.ID, svc) })
}
