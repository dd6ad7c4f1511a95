package buffer

import "slices"

// NameCache holds a list of display names built from a versioned registry.
// The list is rebuilt only when the registry version differs from the one it
// was built from.
type NameCache struct {
	version uint64
	built   bool
	names   []string
}

// Get returns the cached names, calling build first when version changed.
func (c *NameCache) Get(version uint64, build func() []string) []string {
	if !c.built || c.version != version {
		c.names = build()
		c.version = version
		c.built = true
	}
	return c.names
}

// Invalidate forces the next Get to rebuild.
func (c *NameCache) Invalidate() {
	c.built = false
}

// Invalidate drops the cached labels. Buffer attributes such as the
// modified flag and the window change without bumping the registry version.
func (v *OpenView) Invalidate() {
	v.cache.Invalidate()
}

// OpenView lists the open buffers.
type OpenView struct {
	files *OpenFiles
	cache NameCache
}

// NewOpenView creates a view over files.
func NewOpenView(files *OpenFiles) *OpenView {
	return &OpenView{files: files}
}

// Names returns one label per open buffer. Modified buffers are marked with
// '*' and buffers without a window with "[hidden]".
func (v *OpenView) Names() []string {
	return v.cache.Get(v.files.Version(), func() []string {
		names := make([]string, 0, v.files.Len())
		for _, b := range v.files.files {
			label := b.DisplayName()
			if b.modified {
				label = "*" + label
			}
			if !b.hasWindow {
				label += " [hidden]"
			}
			names = append(names, label)
		}
		return names
	})
}

// RecentView lists recently closed files, capped to a maximum length.
type RecentView struct {
	recent *RecentFiles
	max    int
	cache  NameCache
}

// NewRecentView creates a view over recent showing at most limit entries.
func NewRecentView(recent *RecentFiles, limit int) *RecentView {
	return &RecentView{recent: recent, max: limit}
}

// Entries returns the listed entries, newest first.
func (v *RecentView) Entries() []RecentFile {
	entries := v.recent.entries
	if v.max > 0 && len(entries) > v.max {
		entries = entries[:v.max]
	}
	return slices.Clone(entries)
}

// Names returns the listed file names.
func (v *RecentView) Names() []string {
	return v.cache.Get(v.recent.Version(), func() []string {
		entries := v.Entries()
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		return names
	})
}
