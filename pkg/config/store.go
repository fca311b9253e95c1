package config

// Store is a file-backed accessor over a single configuration file. Every
// call re-reads the file; Set writes it back before returning.
type Store struct {
	// Path is the configuration file.
	Path string

	// Example is the template copied into place by Ensure. Optional.
	Example string
}

// NewStore returns a Store for the file at path seeded from example.
func NewStore(path, example string) *Store {
	return &Store{Path: path, Example: example}
}

// Load reads the configuration document.
func (s *Store) Load() (*Document, error) {
	return Load(s.Path)
}

// Ensure creates the configuration file from the example template (or as an
// empty document) when it does not exist yet, then loads it.
func (s *Store) Ensure() (*Document, error) {
	if _, err := EnsureFile(s.Path, s.Example); err != nil {
		return nil, err
	}

	return s.Load()
}

// Get returns the value stored at path. See Document.Get.
func (s *Store) Get(path string) (any, bool, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, false, err
	}

	return doc.Get(path)
}

// Set stores value at path and writes the file.
func (s *Store) Set(path string, value any) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}

	if err := doc.Set(path, value); err != nil {
		return err
	}

	return doc.Save()
}
