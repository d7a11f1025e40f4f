package session

import "github.com/abhisek/mathsheet/internal/worksheet"

// AddFiles appends uploaded documents.
func (s *Session) AddFiles(files ...worksheet.FileData) {
	if len(files) == 0 {
		return
	}
	s.mu.Lock()
	s.files = append(s.files, files...)
	s.mu.Unlock()

	s.events.emit(Event{Kind: EventFilesUpdated})
}

// RemoveFile drops a document by id.
func (s *Session) RemoveFile(id string) error {
	s.mu.Lock()
	idx := -1
	for i, f := range s.files {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.files = append(s.files[:idx:idx], s.files[idx+1:]...)
	s.mu.Unlock()

	s.events.emit(Event{Kind: EventFilesUpdated})
	return nil
}

// Files returns the uploaded documents in upload order.
func (s *Session) Files() []worksheet.FileData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]worksheet.FileData(nil), s.files...)
}
