package buffer

import "slices"

// OpenFiles is the ordered registry of open buffers.
type OpenFiles struct {
	files   []*FileBuffer
	version uint64
}

// NewOpenFiles creates an empty registry.
func NewOpenFiles() *OpenFiles {
	return &OpenFiles{}
}

// Version returns the change counter.
func (o *OpenFiles) Version() uint64 { return o.version }

// Len returns the number of open buffers.
func (o *OpenFiles) Len() int { return len(o.files) }

// At returns the buffer at index i.
func (o *OpenFiles) At(i int) *FileBuffer { return o.files[i] }

// All returns the open buffers in order.
func (o *OpenFiles) All() []*FileBuffer {
	return slices.Clone(o.files)
}

// Add appends b unless it is already registered.
func (o *OpenFiles) Add(b *FileBuffer) {
	if o.Index(b) >= 0 {
		return
	}
	o.files = append(o.files, b)
	o.version++
}

// Replace puts b in the slot of old, or appends it when old is not open.
func (o *OpenFiles) Replace(old, b *FileBuffer) {
	if i := o.Index(old); i >= 0 {
		o.files[i] = b
		o.version++
		return
	}
	o.Add(b)
}

// Remove unregisters b. It reports whether b was open.
func (o *OpenFiles) Remove(b *FileBuffer) bool {
	i := o.Index(b)
	if i < 0 {
		return false
	}
	o.files = slices.Delete(o.files, i, i+1)
	o.version++
	return true
}

// Index returns the position of b, or -1.
func (o *OpenFiles) Index(b *FileBuffer) int {
	return slices.Index(o.files, b)
}

// Contains reports whether b is open.
func (o *OpenFiles) Contains(b *FileBuffer) bool {
	return o.Index(b) >= 0
}

// ByPath returns the open buffer whose file name refers to path.
func (o *OpenFiles) ByPath(path string) *FileBuffer {
	return o.Find(func(b *FileBuffer) bool {
		return SamePath(b.name, path)
	})
}

// Find returns the first open buffer match accepts.
func (o *OpenFiles) Find(match func(*FileBuffer) bool) *FileBuffer {
	for _, b := range o.files {
		if match(b) {
			return b
		}
	}
	return nil
}

// Modified returns the open buffers with unsaved changes.
func (o *OpenFiles) Modified() []*FileBuffer {
	var out []*FileBuffer
	for _, b := range o.files {
		if b.modified {
			out = append(out, b)
		}
	}
	return out
}

// RecentFile describes a closed file.
type RecentFile struct {
	Name     string
	Encoding string
}

// RecentFiles is the most-recently-closed registry, newest first.
type RecentFiles struct {
	entries []RecentFile
	max     int
	version uint64
}

// NewRecentFiles creates a registry keeping at most limit entries.
// A limit of zero or less means unlimited.
func NewRecentFiles(limit int) *RecentFiles {
	return &RecentFiles{max: limit}
}

// Version returns the change counter.
func (r *RecentFiles) Version() uint64 { return r.version }

// Len returns the number of entries.
func (r *RecentFiles) Len() int { return len(r.entries) }

// Get returns the entry at index i.
func (r *RecentFiles) Get(i int) RecentFile { return r.entries[i] }

// All returns the entries, newest first.
func (r *RecentFiles) All() []RecentFile {
	return slices.Clone(r.entries)
}

// Push records a closed buffer. Untitled buffers are not recorded.
func (r *RecentFiles) Push(b *FileBuffer) {
	if b.name == "" {
		return
	}
	r.PushFront(RecentFile{Name: b.name, Encoding: b.encoding})
}

// PushFront inserts entry as the newest, dropping an older entry for the
// same path and the oldest entries beyond the limit.
func (r *RecentFiles) PushFront(entry RecentFile) {
	r.entries = slices.DeleteFunc(r.entries, func(e RecentFile) bool {
		return e.Name == entry.Name || SamePath(e.Name, entry.Name)
	})
	r.entries = slices.Insert(r.entries, 0, entry)
	if r.max > 0 && len(r.entries) > r.max {
		r.entries = r.entries[:r.max]
	}
	r.version++
}

// Remove deletes the entry for name. It reports whether one existed.
func (r *RecentFiles) Remove(name string) bool {
	n := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(e RecentFile) bool {
		return e.Name == name
	})
	if len(r.entries) == n {
		return false
	}
	r.version++
	return true
}
